// Package duplicates finds certificate numbers shared between people in one
// application. Blank numbers never match anything.
package duplicates

import (
	"slices"
	"strconv"
	"strings"

	"childminder/pkg/domain"
)

// Entry is one household member's certificate number.
type Entry struct {
	PersonID domain.PersonID
	Number   string
}

func normalize(s string) string {
	return strings.TrimSpace(s)
}

// FindSelfDuplicate reports whether candidate is the applicant's own number.
func FindSelfDuplicate(applicant, candidate string) bool {
	a, c := normalize(applicant), normalize(candidate)
	return c != "" && a == c
}

// FindHouseholdDuplicate reports whether candidate matches any entry other
// than the one owned by excluding.
func FindHouseholdDuplicate(entries []Entry, candidate string, excluding *domain.PersonID) bool {
	c := normalize(candidate)
	if c == "" {
		return false
	}
	for _, e := range entries {
		if excluding != nil && e.PersonID == *excluding {
			continue
		}
		if normalize(e.Number) == c {
			return true
		}
	}
	return false
}

// FindFirstDuplicateIndex returns the 0-based index of the first value that
// repeats an earlier one, i.e. the second occurrence.
func FindFirstDuplicateIndex(numbers []string) (int, bool) {
	seen := make(map[string]struct{}, len(numbers))
	for i, n := range numbers {
		n = normalize(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			return i, true
		}
		seen[n] = struct{}{}
	}
	return 0, false
}

// FindAllDuplicateIndexes returns, ascending, every index holding the same
// value as numbers[first]. Nil when first is out of range or blank.
func FindAllDuplicateIndexes(numbers []string, first int) []int {
	if first < 0 || first >= len(numbers) {
		return nil
	}
	target := normalize(numbers[first])
	if target == "" {
		return nil
	}
	var out []int
	for i, n := range numbers {
		if normalize(n) == target {
			out = append(out, i)
		}
	}
	return out
}

// FromFormFields orders submitted fields by key so indexes line up with the
// household ordering. Keys compare by prefix, then by numeric suffix, so
// "adult_10" follows "adult_9".
func FromFormFields(fields map[string]string) (keys, numbers []string) {
	keys = make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)

	numbers = make([]string, len(keys))
	for i, k := range keys {
		numbers[i] = fields[k]
	}
	return keys, numbers
}

func compareKeys(a, b string) int {
	ap, an, aok := splitNumericSuffix(a)
	bp, bn, bok := splitNumericSuffix(b)
	if aok && bok && ap == bp && an != bn {
		if an < bn {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func splitNumericSuffix(s string) (string, int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0, false
	}
	return s[:i], n, true
}
