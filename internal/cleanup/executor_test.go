package cleanup

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	calls    [][]string
	failCall int // 1-based call index to fail, 0 = never
}

func (f *fakeDeleter) DeleteSignalsByIDs(ids []string) (int64, error) {
	f.calls = append(f.calls, ids)
	if len(f.calls) == f.failCall {
		return 0, errors.New("backend rejected batch")
	}
	return int64(len(ids)), nil
}

func candidateSetOfSize(n int) *CandidateSet {
	set := NewCandidateSet()
	for i := 0; i < n; i++ {
		set.Add(fmt.Sprintf("sig-%04d", i), ReasonAcademicGovernment)
	}
	return set
}

func TestExecutorChunksDeletes(t *testing.T) {
	deleter := &fakeDeleter{}
	executor := NewExecutor(deleter, 100)

	report := executor.Execute(candidateSetOfSize(250))

	require.Len(t, deleter.calls, 3)
	assert.Len(t, deleter.calls[0], 100)
	assert.Len(t, deleter.calls[1], 100)
	assert.Len(t, deleter.calls[2], 50)
	assert.Equal(t, 250, report.Deleted)
	assert.Equal(t, 250, report.TotalMatched)
}

func TestExecutorToleratesChunkFailure(t *testing.T) {
	deleter := &fakeDeleter{failCall: 2}
	executor := NewExecutor(deleter, 100)

	report := executor.Execute(candidateSetOfSize(250))

	// The failed middle chunk does not stop the third.
	require.Len(t, deleter.calls, 3)
	assert.Equal(t, 150, report.Deleted)
	assert.Equal(t, 250, report.TotalMatched)
}

func TestExecutorEmptySet(t *testing.T) {
	deleter := &fakeDeleter{}
	executor := NewExecutor(deleter, 100)

	report := executor.Execute(NewCandidateSet())

	assert.Empty(t, deleter.calls)
	assert.Equal(t, 0, report.Deleted)
	assert.Equal(t, 0, report.TotalMatched)
}

func TestExecutorReportsBreakdown(t *testing.T) {
	set := NewCandidateSet()
	set.Add("a", ReasonAcademicGovernment)
	set.Add("b", ReasonDuplicateJobURL)
	set.Add("c", ReasonDuplicateJobURL)

	report := NewExecutor(&fakeDeleter{}, 100).Execute(set)

	assert.Equal(t, map[string]int{
		string(ReasonAcademicGovernment): 1,
		string(ReasonDuplicateJobURL):    2,
	}, report.Breakdown)
}
