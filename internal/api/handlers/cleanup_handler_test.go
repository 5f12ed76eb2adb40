package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signal-desk/backend/internal/cleanup"
	"github.com/signal-desk/backend/internal/registry"
	"github.com/signal-desk/backend/internal/storage/models"
	"github.com/signal-desk/backend/internal/storage/sqlite"
)

type cleanupStore struct {
	signals []models.Signal
	deleted []string
}

func (c *cleanupStore) SignalsByTypes([]models.SignalType) ([]models.Signal, error) {
	return c.signals, nil
}

func (c *cleanupStore) DeleteSignalsByIDs(ids []string) (int64, error) {
	c.deleted = append(c.deleted, ids...)
	return int64(len(ids)), nil
}

type firmStore struct {
	firms map[string]*models.CompetitorFirm
}

func (f *firmStore) FirmByName(name string) (*models.CompetitorFirm, error) {
	if firm, ok := f.firms[name]; ok {
		return firm, nil
	}
	return nil, sqlite.ErrNotFound
}

func (f *firmStore) SetFirmActive(id string, active bool) error {
	for _, firm := range f.firms {
		if firm.ID == id {
			firm.IsActive = active
			return nil
		}
	}
	return sqlite.ErrNotFound
}

func (f *firmStore) InsertFirm(firm *models.CompetitorFirm) error {
	f.firms[firm.Name] = firm
	return nil
}

func TestCleanupSignalsEndpoint(t *testing.T) {
	store := &cleanupStore{
		signals: []models.Signal{
			{
				ID:              "bad",
				Type:            models.TypeCompetitorJobScraped,
				FirstDetectedAt: time.Now(),
				Detail:          models.Detail{},
			},
		},
	}

	rules := cleanup.DefaultRules(cleanup.DefaultRuleConfig("Indeed"))
	pipeline := cleanup.NewPipeline(store, rules, 100)
	handler := NewCleanupHandler(pipeline, nil)

	app := fiber.New()
	app.Post("/cleanup-academic-signals", handler.CleanupSignals)

	req := httptest.NewRequest(http.MethodPost, "/cleanup-academic-signals", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed struct {
		Deleted      int            `json:"deleted"`
		TotalMatched int            `json:"total_matched"`
		Breakdown    map[string]int `json:"breakdown"`
		Message      string         `json:"message"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, 1, parsed.Deleted)
	assert.Equal(t, 1, parsed.TotalMatched)
	assert.Equal(t, 1, parsed.Breakdown["distrusted_origin"])
	assert.NotEmpty(t, parsed.Message)
	assert.Equal(t, []string{"bad"}, store.deleted)
}

func TestCleanupCompetitorFirmsEndpoint(t *testing.T) {
	store := &firmStore{
		firms: map[string]*models.CompetitorFirm{
			"IQVIA": {ID: "1", Name: "IQVIA", IsActive: true},
		},
	}

	reconciler := registry.NewReconciler(store, []string{"IQVIA"}, []string{"Proclinical"})
	handler := NewCleanupHandler(nil, reconciler)

	app := fiber.New()
	app.Post("/cleanup-competitor-firms", handler.CleanupCompetitorFirms)

	req := httptest.NewRequest(http.MethodPost, "/cleanup-competitor-firms", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed struct {
		Success          bool     `json:"success"`
		Deactivated      int      `json:"deactivated"`
		DeactivatedFirms []string `json:"deactivatedFirms"`
		Seeded           int      `json:"seeded"`
		Skipped          int      `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.True(t, parsed.Success)
	assert.Equal(t, 1, parsed.Deactivated)
	assert.Equal(t, []string{"IQVIA"}, parsed.DeactivatedFirms)
	assert.Equal(t, 1, parsed.Seeded)
	assert.Equal(t, 0, parsed.Skipped)
}
