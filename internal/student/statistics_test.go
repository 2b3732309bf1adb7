package student

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatistics_Empty(t *testing.T) {
	st := ComputeStatistics(nil)
	assert.Equal(t, Statistics{}, st)
	assert.Zero(t, st.HonorPercentage())
}

func TestComputeStatistics(t *testing.T) {
	students := []Student{
		{GPA: 3.8, Age: 20},
		{GPA: 2.5, Age: 22},
	}

	st := ComputeStatistics(students)
	assert.Equal(t, 2, st.Count)
	assert.InDelta(t, 3.15, st.MeanGPA, 1e-9)
	assert.InDelta(t, 2.5, st.MinGPA, 1e-9)
	assert.InDelta(t, 3.8, st.MaxGPA, 1e-9)
	assert.Equal(t, 1, st.HonorCount)
	assert.InDelta(t, 21, st.MeanAge, 1e-9)
	assert.InDelta(t, 50, st.HonorPercentage(), 1e-9)
}

func TestComputeStatistics_HonorBoundary(t *testing.T) {
	st := ComputeStatistics([]Student{{GPA: 3.5}, {GPA: 3.49}, {GPA: 4.0}})
	assert.Equal(t, 2, st.HonorCount)
	assert.InDelta(t, 200.0/3, st.HonorPercentage(), 1e-9)
}

func TestStatistics_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(ComputeStatistics([]Student{{GPA: 3.8, Age: 20}, {GPA: 2.5, Age: 22}}))
	require.NoError(t, err)

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 2.0, decoded["count"])
	assert.InDelta(t, 3.15, decoded["meanGpa"], 1e-9)
	assert.Equal(t, 1.0, decoded["honorCount"])
	assert.Equal(t, 50.0, decoded["honorPercentage"])
}
