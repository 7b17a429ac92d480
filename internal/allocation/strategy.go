package allocation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/exam-seating/internal/model"
)

// Strategy decides the order in which pending students take seats.
//
// Implementations must be deterministic: the same students in any input
// order produce the same output order.  They must not drop or duplicate
// students, and they must not mutate the input slice.
type Strategy interface {
	Name() string
	Order(students []model.Student) []model.Student
}

const (
	StrategySequential  = "sequential"
	StrategyInterleaved = "interleaved"
)

// StrategyByName maps a config value to a Strategy.
func StrategyByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategySequential:
		return Sequential{}, nil
	case StrategyInterleaved:
		return Interleaved{}, nil
	}
	return nil, fmt.Errorf("unknown allocation strategy %q", name)
}

// Sequential seats students in ascending register_no order.
type Sequential struct{}

func (Sequential) Name() string { return StrategySequential }

func (Sequential) Order(students []model.Student) []model.Student {
	out := make([]model.Student, len(students))
	copy(out, students)
	sortByRegisterNo(out)
	return out
}

// Interleaved spreads courses apart: students are grouped by course_code,
// each group sorted by register_no, then one student is taken from each
// course in course_code order until every group is drained.  Neighbours in
// a room therefore rarely sit the same paper.
type Interleaved struct{}

func (Interleaved) Name() string { return StrategyInterleaved }

func (Interleaved) Order(students []model.Student) []model.Student {
	groups := make(map[string][]model.Student)
	for _, s := range students {
		groups[s.CourseCode] = append(groups[s.CourseCode], s)
	}
	codes := make([]string, 0, len(groups))
	for code, g := range groups {
		codes = append(codes, code)
		sortByRegisterNo(g)
	}
	sort.Strings(codes)

	out := make([]model.Student, 0, len(students))
	for i := 0; len(out) < len(students); i++ {
		for _, code := range codes {
			if g := groups[code]; i < len(g) {
				out = append(out, g[i])
			}
		}
	}
	return out
}

func sortByRegisterNo(s []model.Student) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].RegisterNo < s[j].RegisterNo })
}
