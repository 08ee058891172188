package geotag

import "fmt"

type Outcome string

const (
	OutcomeEmpty        Outcome = "empty"
	OutcomeAllSucceeded Outcome = "all-succeeded"
	OutcomePartial      Outcome = "partial"
	OutcomeAllFailed    Outcome = "all-failed"
)

type Summary struct {
	Total     int     `json:"total"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Outcome   Outcome `json:"outcome"`
}

func Summarize(results []WriteResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}

	switch {
	case s.Total == 0:
		s.Outcome = OutcomeEmpty
	case s.Failed == 0:
		s.Outcome = OutcomeAllSucceeded
	case s.Succeeded == 0:
		s.Outcome = OutcomeAllFailed
	default:
		s.Outcome = OutcomePartial
	}
	return s
}

func (s Summary) String() string {
	switch s.Outcome {
	case OutcomeEmpty:
		return "no files given"
	case OutcomeAllSucceeded:
		return fmt.Sprintf("all %d files written", s.Total)
	case OutcomeAllFailed:
		return fmt.Sprintf("all %d files failed", s.Total)
	default:
		return fmt.Sprintf("partial failure: %d/%d files written", s.Succeeded, s.Total)
	}
}

// FailedPaths returns the paths of unsuccessful results, in order.
func FailedPaths(results []WriteResult) []string {
	var out []string
	for _, r := range results {
		if !r.Success {
			out = append(out, r.FilePath)
		}
	}
	return out
}
