package duplicates

import "slices"

// Report is the outcome of checking a full set of household numbers.
// Indexes are 0-based into the list that was checked.
type Report struct {
	SelfMatches []int `json:"self_matches,omitempty"`
	Duplicates  []int `json:"duplicates,omitempty"`
}

// Check flags numbers equal to the applicant's and every member of the first
// duplicated group.
func Check(applicant string, numbers []string) Report {
	var r Report
	for i, n := range numbers {
		if FindSelfDuplicate(applicant, n) {
			r.SelfMatches = append(r.SelfMatches, i)
		}
	}
	if first, ok := FindFirstDuplicateIndex(numbers); ok {
		r.Duplicates = FindAllDuplicateIndexes(numbers, first)
	}
	return r
}

func (r Report) HasProblems() bool {
	return len(r.SelfMatches) > 0 || len(r.Duplicates) > 0
}

// Positions returns the distinct 1-based positions to report to the user.
func (r Report) Positions() []int {
	seen := make(map[int]struct{}, len(r.SelfMatches)+len(r.Duplicates))
	var out []int
	for _, group := range [][]int{r.SelfMatches, r.Duplicates} {
		for _, i := range group {
			if _, ok := seen[i]; ok {
				continue
			}
			seen[i] = struct{}{}
			out = append(out, i+1)
		}
	}
	slices.Sort(out)
	return out
}

// Fields maps the offending indexes back to the keys the list was built from.
func (r Report) Fields(keys []string) []string {
	var out []string
	for _, p := range r.Positions() {
		if p-1 < len(keys) {
			out = append(out, keys[p-1])
		}
	}
	return out
}
