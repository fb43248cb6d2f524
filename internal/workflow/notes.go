package workflow

import (
	"context"
	"sort"
)

// Consolidate produces the structured note set the reporter works from: for
// repeated calls of the same tool under the same task only the latest finding
// survives, task summaries always survive, and the result is ordered by task
// then iteration. The input slice is left untouched.
func Consolidate(notes []Note) []Note {
	type key struct {
		taskOrdinal int
		tool        string
	}

	latest := make(map[key]int)
	for i, n := range notes {
		if n.Tool == "" {
			continue
		}
		latest[key{n.TaskOrdinal, n.Tool}] = i
	}

	var out []Note
	for i, n := range notes {
		if n.Tool != "" && latest[key{n.TaskOrdinal, n.Tool}] != i {
			continue
		}
		out = append(out, n)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TaskOrdinal != out[j].TaskOrdinal {
			return out[i].TaskOrdinal < out[j].TaskOrdinal
		}
		return out[i].Iteration < out[j].Iteration
	})
	return out
}

func consolidateNode(_ context.Context, s *State) (*State, error) {
	s.Structured = Consolidate(s.Notes)
	return s, nil
}
