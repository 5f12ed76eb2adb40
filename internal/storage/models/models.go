package models

import (
	"strings"
	"time"
)

type SignalType string

const (
	TypeCompetitorJob        SignalType = "competitor_job"
	TypeCompetitorJobATS     SignalType = "competitor_job_ats"
	TypeCompetitorJobScraped SignalType = "competitor_job_scraped"
	TypeTrialPhaseChange     SignalType = "trial_phase_change"
	TypeTrialNewFiling       SignalType = "trial_new_filing"
	TypeFundingAward         SignalType = "funding_award"
	TypeMATransaction        SignalType = "ma_transaction"
)

// JobTypes are the posting-derived types subject to source checks and
// URL-based deduplication.
func JobTypes() []SignalType {
	return []SignalType{TypeCompetitorJob, TypeCompetitorJobATS, TypeCompetitorJobScraped}
}

func AllTypes() []SignalType {
	return []SignalType{
		TypeCompetitorJob,
		TypeCompetitorJobATS,
		TypeCompetitorJobScraped,
		TypeTrialPhaseChange,
		TypeTrialNewFiling,
		TypeFundingAward,
		TypeMATransaction,
	}
}

func (t SignalType) IsJobPosting() bool {
	switch t {
	case TypeCompetitorJob, TypeCompetitorJobATS, TypeCompetitorJobScraped:
		return true
	}
	return false
}

type SignalStatus string

const (
	StatusNew            SignalStatus = "new"
	StatusCarriedForward SignalStatus = "carried_forward"
	StatusClaimed        SignalStatus = "claimed"
	StatusContacted      SignalStatus = "contacted"
	StatusClosed         SignalStatus = "closed"
)

// ActiveStatuses are the statuses that appear in the work queue.
func ActiveStatuses() []SignalStatus {
	return []SignalStatus{StatusNew, StatusCarriedForward, StatusClaimed, StatusContacted}
}

// Detail is the semi-structured attribute bag attached to a signal. Field
// names vary by signal type, so consumers resolve logical attributes through
// the accessors below rather than reading keys directly.
type Detail map[string]any

func (d Detail) String(key string) string {
	if d == nil {
		return ""
	}
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

// endClientFields is the documented resolution order for the end-client
// company name. First non-empty wins.
var endClientFields = []string{"company_name", "sponsor", "lead_sponsor", "acquirer_name"}

// EndClientName resolves the end-client company name through the per-type
// field fallback chain.
func (d Detail) EndClientName() string {
	for _, field := range endClientFields {
		if v := strings.TrimSpace(d.String(field)); v != "" {
			return v
		}
	}
	return ""
}

type Signal struct {
	ID               string       `json:"id"`
	Type             SignalType   `json:"signal_type"`
	Summary          string       `json:"signal_summary"`
	Detail           Detail       `json:"signal_detail"`
	SourceURL        string       `json:"source_url"`
	SourceName       string       `json:"source_name"`
	FirstDetectedAt  time.Time    `json:"first_detected_at"`
	Status           SignalStatus `json:"status"`
	ClaimedBy        string       `json:"claimed_by"`
	PriorityScore    float64      `json:"priority_score"`
	ScoreBreakdown   string       `json:"score_breakdown"`
	DaysInQueue      int          `json:"days_in_queue"`
	IsCarriedForward bool         `json:"is_carried_forward"`
	CompanyID        string       `json:"company_id,omitempty"`
}

// DedupKey derives the duplicate-collapse key for job signals: the posting
// URL when present, otherwise the source URL. Empty means exempt from dedup.
func (s *Signal) DedupKey() string {
	if u := strings.TrimSpace(s.Detail.String("job_url")); u != "" {
		return u
	}
	return strings.TrimSpace(s.SourceURL)
}

// SignalUpdate is a partial update; nil fields are left untouched.
type SignalUpdate struct {
	Status    *SignalStatus
	ClaimedBy *string
}

func (u SignalUpdate) Empty() bool {
	return u.Status == nil && u.ClaimedBy == nil
}

type Company struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Domain             string `json:"domain"`
	RelationshipWarmth string `json:"relationship_warmth"`
	SizeRange          string `json:"size_range"`
}

const DefaultWarmth = "new_prospect"

// CompetitorFirm is a trusted staffing-firm source. Mis-classified entities
// are deactivated rather than deleted, preserving history.
type CompetitorFirm struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type Contact struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Title     string `json:"title"`
}

type SignalContact struct {
	SignalID  string `json:"signal_id"`
	ContactID string `json:"contact_id"`
	IsPrimary bool   `json:"is_primary"`
}

// SignalWithCompany is the feed join row: a signal plus its owning company,
// when the weak reference resolves.
type SignalWithCompany struct {
	Signal
	Company *Company
}

// ClientPrediction is one ranked end-client guess from the enrichment engine.
type ClientPrediction struct {
	CompanyName string `json:"company_name"`
	Confidence  string `json:"confidence"`
	Reasoning   string `json:"reasoning"`
}
