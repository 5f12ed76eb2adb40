package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signal-desk/backend/internal/feed"
	"github.com/signal-desk/backend/internal/storage/models"
	"github.com/signal-desk/backend/internal/storage/sqlite"
)

type fakeUpdater struct {
	calls    int
	notFound bool
}

func (f *fakeUpdater) UpdateSignal(id string, update models.SignalUpdate) (*models.Signal, error) {
	f.calls++
	if f.notFound {
		return nil, sqlite.ErrNotFound
	}
	s := &models.Signal{ID: id, Status: models.StatusNew}
	if update.Status != nil {
		s.Status = *update.Status
	}
	if update.ClaimedBy != nil {
		s.ClaimedBy = *update.ClaimedBy
	}
	return s, nil
}

type emptyFeedStore struct{}

func (emptyFeedStore) ActiveSignals([]models.SignalStatus) ([]models.SignalWithCompany, error) {
	return nil, nil
}

func (emptyFeedStore) CompanyIDsWithContacts() (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (emptyFeedStore) SignalContactLinks() ([]models.SignalContact, error) {
	return nil, nil
}

func newTestApp(updater *fakeUpdater) *fiber.App {
	handler := NewSignalsHandler(feed.NewAssembler(emptyFeedStore{}, nil), updater)

	app := fiber.New()
	app.Get("/signals", handler.GetSignals)
	app.Patch("/signals", handler.PatchSignal)
	return app
}

func patchSignals(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPatch, "/signals", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestPatchSignalMissingID(t *testing.T) {
	updater := &fakeUpdater{}
	app := newTestApp(updater)

	resp := patchSignals(t, app, `{"status": "claimed"}`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, updater.calls)
}

func TestPatchSignalNoUpdatableFields(t *testing.T) {
	updater := &fakeUpdater{}
	app := newTestApp(updater)

	resp := patchSignals(t, app, `{"id": "x"}`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	// Store must be left untouched on validation failure.
	assert.Equal(t, 0, updater.calls)
}

func TestPatchSignalOK(t *testing.T) {
	updater := &fakeUpdater{}
	app := newTestApp(updater)

	resp := patchSignals(t, app, `{"id": "s1", "status": "claimed", "claimed_by": "alice"}`)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, updater.calls)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed struct {
		Signal models.Signal `json:"signal"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, "s1", parsed.Signal.ID)
	assert.Equal(t, models.StatusClaimed, parsed.Signal.Status)
	assert.Equal(t, "alice", parsed.Signal.ClaimedBy)
}

func TestPatchSignalNotFound(t *testing.T) {
	updater := &fakeUpdater{notFound: true}
	app := newTestApp(updater)

	resp := patchSignals(t, app, `{"id": "missing", "status": "claimed"}`)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetSignalsShape(t *testing.T) {
	app := newTestApp(&fakeUpdater{})

	req := httptest.NewRequest(http.MethodGet, "/signals", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Contains(t, parsed, "signals")
	assert.Contains(t, parsed, "stats")
	assert.Contains(t, parsed, "lastUpdated")
}
