package student

import "strings"

// AllMajors selects every major in a Filter.
const AllMajors = "All Majors"

// Filter narrows the working set.
type Filter struct {
	Query     string
	Major     string
	HonorOnly bool
}

// Matches reports whether s passes every criterion of f.
func (f Filter) Matches(s *Student) bool {
	if f.HonorOnly && !s.IsHonorStudent() {
		return false
	}
	if major := strings.TrimSpace(f.Major); major != "" && major != AllMajors && s.Major != major {
		return false
	}
	return f.matchesQuery(s)
}

func (f Filter) matchesQuery(s *Student) bool {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.FirstName), q) ||
		strings.Contains(strings.ToLower(s.LastName), q) ||
		strings.Contains(strings.ToLower(s.Email), q) ||
		strings.Contains(strings.ToLower(s.Major), q)
}

// Apply returns the students matching f, preserving order.
func (f Filter) Apply(students []Student) []Student {
	out := make([]Student, 0, len(students))
	for i := range students {
		if f.Matches(&students[i]) {
			out = append(out, students[i])
		}
	}
	return out
}
