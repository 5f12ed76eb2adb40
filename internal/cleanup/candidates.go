package cleanup

import "sort"

type Reason string

const (
	ReasonAcademicGovernment Reason = "academic_government"
	ReasonInvalidPhase       Reason = "invalid_phase"
	ReasonUntrustedSource    Reason = "untrusted_source"
	ReasonUntrustedATS       Reason = "untrusted_ats"
	ReasonDistrustedOrigin   Reason = "distrusted_origin"
	ReasonGarbageTitle       Reason = "garbage_title"
	ReasonDuplicateJobURL    Reason = "duplicate_job_url"
)

// CandidateSet accumulates deletion candidates across rule passes. Adding an
// id twice is a no-op: the first reason sticks, and rules never remove a
// candidate added by another rule.
type CandidateSet struct {
	reasons map[string]Reason
}

func NewCandidateSet() *CandidateSet {
	return &CandidateSet{reasons: make(map[string]Reason)}
}

func (s *CandidateSet) Add(id string, reason Reason) bool {
	if _, exists := s.reasons[id]; exists {
		return false
	}
	s.reasons[id] = reason
	return true
}

func (s *CandidateSet) Contains(id string) bool {
	_, ok := s.reasons[id]
	return ok
}

func (s *CandidateSet) Len() int {
	return len(s.reasons)
}

// IDs returns the candidate ids in sorted order so delete chunking is
// deterministic.
func (s *CandidateSet) IDs() []string {
	ids := make([]string, 0, len(s.reasons))
	for id := range s.reasons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Breakdown counts candidates per reason code.
func (s *CandidateSet) Breakdown() map[string]int {
	counts := make(map[string]int)
	for _, reason := range s.reasons {
		counts[string(reason)]++
	}
	return counts
}
