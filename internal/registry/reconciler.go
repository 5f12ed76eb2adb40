package registry

import (
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/signal-desk/backend/internal/storage/models"
	"github.com/signal-desk/backend/internal/storage/sqlite"
	"github.com/signal-desk/backend/pkg/logger"
)

type FirmStore interface {
	FirmByName(name string) (*models.CompetitorFirm, error)
	SetFirmActive(id string, active bool) error
	InsertFirm(firm *models.CompetitorFirm) error
}

// DefaultExclusions are entities that ended up in the registry but are not
// staffing firms: CROs, central labs, and industry associations. They are
// deactivated, never deleted, so signal history stays attributable.
func DefaultExclusions() []string {
	return []string{
		"IQVIA",
		"Syneos Health",
		"Parexel",
		"ICON",
		"Charles River Laboratories",
		"Medpace",
		"PPD",
		"Association of Clinical Research Professionals",
		"Society for Clinical Research Sites",
	}
}

// DefaultCanonicalFirms is the hand-curated allow-list of true staffing-firm
// sources.
func DefaultCanonicalFirms() []string {
	return []string{
		"Barrington James",
		"EPM Scientific",
		"Proclinical",
		"Meet Recruitment",
		"Planet Pharma",
		"Advanced Clinical",
		"Synectics for Clinical Research",
		"SRG",
		"Actalent",
	}
}

type SkippedFirm struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type Report struct {
	Deactivated      int           `json:"deactivated"`
	DeactivatedFirms []string      `json:"deactivatedFirms"`
	Seeded           int           `json:"seeded"`
	Skipped          int           `json:"skipped"`
	SkippedFirms     []SkippedFirm `json:"skippedFirms"`
}

// Reconciler drives the competitor-firm registry to a canonical state:
// exclusion-list entries deactivated, allow-list entries present and active.
// Re-running re-affirms the same state with no further side effects.
type Reconciler struct {
	store      FirmStore
	exclusions []string
	canonical  []string
}

func NewReconciler(store FirmStore, exclusions, canonical []string) *Reconciler {
	return &Reconciler{store: store, exclusions: exclusions, canonical: canonical}
}

func (r *Reconciler) Reconcile() (*Report, error) {
	report := &Report{
		DeactivatedFirms: []string{},
		SkippedFirms:     []SkippedFirm{},
	}

	for _, name := range r.exclusions {
		firm, err := r.store.FirmByName(name)
		if errors.Is(err, sqlite.ErrNotFound) {
			continue
		}
		if err != nil {
			logger.Warn("Exclusion lookup failed", zap.String("firm", name), zap.Error(err))
			continue
		}
		if !firm.IsActive {
			continue
		}

		if err := r.store.SetFirmActive(firm.ID, false); err != nil {
			logger.Warn("Failed to deactivate firm", zap.String("firm", firm.Name), zap.Error(err))
			continue
		}

		report.Deactivated++
		report.DeactivatedFirms = append(report.DeactivatedFirms, firm.Name)
	}

	for _, name := range r.canonical {
		firm, err := r.store.FirmByName(name)
		if err == nil {
			if !firm.IsActive {
				if err := r.store.SetFirmActive(firm.ID, true); err != nil {
					logger.Warn("Failed to reactivate firm", zap.String("firm", firm.Name), zap.Error(err))
				}
			}
			continue
		}
		if !errors.Is(err, sqlite.ErrNotFound) {
			report.Skipped++
			report.SkippedFirms = append(report.SkippedFirms, SkippedFirm{Name: name, Reason: err.Error()})
			continue
		}

		insertErr := r.store.InsertFirm(&models.CompetitorFirm{
			ID:       uuid.NewString(),
			Name:     name,
			IsActive: true,
		})
		if insertErr != nil {
			logger.Warn("Failed to seed firm", zap.String("firm", name), zap.Error(insertErr))
			report.Skipped++
			report.SkippedFirms = append(report.SkippedFirms, SkippedFirm{Name: name, Reason: insertErr.Error()})
			continue
		}

		report.Seeded++
	}

	logger.Info("Firm registry reconciled",
		zap.Int("deactivated", report.Deactivated),
		zap.Int("seeded", report.Seeded),
		zap.Int("skipped", report.Skipped),
	)

	return report, nil
}
