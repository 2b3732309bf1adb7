package student

import "encoding/json"

// Statistics summarizes a set of students. Every aggregate of an empty set is zero.
type Statistics struct {
	Count      int     `json:"count"`
	MeanGPA    float64 `json:"meanGpa"`
	MinGPA     float64 `json:"minGpa"`
	MaxGPA     float64 `json:"maxGpa"`
	HonorCount int     `json:"honorCount"`
	MeanAge    float64 `json:"meanAge"`
}

// HonorPercentage is 100 * HonorCount / Count, or 0 for an empty set.
func (s Statistics) HonorPercentage() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.HonorCount) * 100 / float64(s.Count)
}

// MarshalJSON adds the derived honor percentage.
func (s Statistics) MarshalJSON() ([]byte, error) {
	type plain Statistics
	return json.Marshal(struct {
		plain
		HonorPercentage float64 `json:"honorPercentage"`
	}{plain(s), s.HonorPercentage()})
}

// ComputeStatistics folds over an in-memory working set.
func ComputeStatistics(students []Student) Statistics {
	var st Statistics
	if len(students) == 0 {
		return st
	}

	var gpaSum float64
	var ageSum int
	st.MinGPA = students[0].GPA
	st.MaxGPA = students[0].GPA
	for i := range students {
		s := &students[i]
		gpaSum += s.GPA
		ageSum += s.Age
		if s.GPA < st.MinGPA {
			st.MinGPA = s.GPA
		}
		if s.GPA > st.MaxGPA {
			st.MaxGPA = s.GPA
		}
		if s.IsHonorStudent() {
			st.HonorCount++
		}
	}
	st.Count = len(students)
	st.MeanGPA = gpaSum / float64(st.Count)
	st.MeanAge = float64(ageSum) / float64(st.Count)
	return st
}
