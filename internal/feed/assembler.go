package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/signal-desk/backend/internal/storage/models"
)

type Store interface {
	ActiveSignals(statuses []models.SignalStatus) ([]models.SignalWithCompany, error)
	CompanyIDsWithContacts() (map[string]struct{}, error)
	SignalContactLinks() ([]models.SignalContact, error)
}

// PredictionCache reads cached end-client predictions. May be nil.
type PredictionCache interface {
	GetPredictions(ctx context.Context, signalID string) ([]models.ClientPrediction, bool, error)
}

// Item is one ranked row of the work-queue view.
type Item struct {
	Rank               int                       `json:"rank"`
	ID                 string                    `json:"id"`
	SignalType         models.SignalType         `json:"signal_type"`
	Summary            string                    `json:"signal_summary"`
	Detail             models.Detail             `json:"signal_detail,omitempty"`
	SourceURL          string                    `json:"source_url"`
	SourceName         string                    `json:"source_name"`
	FirstDetectedAt    time.Time                 `json:"first_detected_at"`
	Status             models.SignalStatus       `json:"status"`
	ClaimedBy          string                    `json:"claimed_by,omitempty"`
	PriorityScore      float64                   `json:"priority_score"`
	DaysInQueue        int                       `json:"days_in_queue"`
	IsCarriedForward   bool                      `json:"is_carried_forward"`
	CompanyName        string                    `json:"company_name"`
	CompanyDomain      string                    `json:"company_domain,omitempty"`
	RelationshipWarmth string                    `json:"relationship_warmth"`
	SizeRange          string                    `json:"size_range,omitempty"`
	HasContacts        bool                      `json:"has_contacts"`
	InferredClients    []models.ClientPrediction `json:"inferred_clients,omitempty"`
}

type Stats struct {
	TotalActive int `json:"totalActive"`
	NewToday    int `json:"newToday"`
	Claimed     int `json:"claimed"`
}

type Feed struct {
	Signals     []Item    `json:"signals"`
	Stats       Stats     `json:"stats"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Assembler joins active signals with company and contact existence data and
// produces the ranked work-queue view. Its three reads are independent; no
// isolation is needed across them.
type Assembler struct {
	store Store
	cache PredictionCache
	now   func() time.Time
}

func NewAssembler(store Store, cache PredictionCache) *Assembler {
	return &Assembler{store: store, cache: cache, now: time.Now}
}

func (a *Assembler) Assemble(ctx context.Context) (*Feed, error) {
	rows, err := a.store.ActiveSignals(models.ActiveStatuses())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active signals: %w", err)
	}

	contactCompanies, err := a.store.CompanyIDsWithContacts()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact companies: %w", err)
	}

	links, err := a.store.SignalContactLinks()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signal contacts: %w", err)
	}

	linkedSignals := make(map[string]struct{}, len(links))
	for _, link := range links {
		linkedSignals[link.SignalID] = struct{}{}
	}

	now := a.now()
	ny, nm, nd := now.Date()

	feed := &Feed{
		Signals:     make([]Item, 0, len(rows)),
		LastUpdated: now,
	}
	feed.Stats.TotalActive = len(rows)

	for i := range rows {
		row := &rows[i]

		item := Item{
			Rank:             i + 1,
			ID:               row.ID,
			SignalType:       row.Type,
			Summary:          row.Summary,
			Detail:           row.Detail,
			SourceURL:        row.SourceURL,
			SourceName:       row.SourceName,
			FirstDetectedAt:  row.FirstDetectedAt,
			Status:           row.Status,
			ClaimedBy:        row.ClaimedBy,
			PriorityScore:    row.PriorityScore,
			DaysInQueue:      row.DaysInQueue,
			IsCarriedForward: row.IsCarriedForward,
		}

		if row.Company != nil {
			item.CompanyName = row.Company.Name
			item.CompanyDomain = row.Company.Domain
			item.RelationshipWarmth = row.Company.RelationshipWarmth
			item.SizeRange = row.Company.SizeRange
		}
		if item.CompanyName == "" {
			item.CompanyName = "Unknown Company"
		}
		if item.RelationshipWarmth == "" {
			item.RelationshipWarmth = models.DefaultWarmth
		}

		_, directlyLinked := linkedSignals[row.ID]
		_, companyHasContacts := contactCompanies[row.CompanyID]
		item.HasContacts = directlyLinked || companyHasContacts

		item.InferredClients = a.cachedPredictions(ctx, row.ID)

		y, m, d := row.FirstDetectedAt.Date()
		if y == ny && m == nm && d == nd {
			feed.Stats.NewToday++
		}
		if strings.TrimSpace(row.ClaimedBy) != "" {
			feed.Stats.Claimed++
		}

		feed.Signals = append(feed.Signals, item)
	}

	return feed, nil
}

func (a *Assembler) cachedPredictions(ctx context.Context, signalID string) []models.ClientPrediction {
	if a.cache == nil {
		return nil
	}
	predictions, ok, err := a.cache.GetPredictions(ctx, signalID)
	if err != nil || !ok {
		return nil
	}
	return predictions
}
