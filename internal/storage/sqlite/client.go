package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/signal-desk/backend/internal/storage/models"
	"github.com/signal-desk/backend/pkg/logger"
)

// ErrNotFound is returned when an id-addressed read or update matches no row.
var ErrNotFound = errors.New("record not found")

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		domain TEXT,
		relationship_warmth TEXT NOT NULL DEFAULT 'new_prospect',
		size_range TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);

	CREATE TABLE IF NOT EXISTS signals (
		id TEXT PRIMARY KEY,
		signal_type TEXT NOT NULL,
		signal_summary TEXT,
		signal_detail TEXT,
		source_url TEXT,
		source_name TEXT,
		first_detected_at INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		claimed_by TEXT,
		priority_score REAL NOT NULL DEFAULT 0,
		score_breakdown TEXT,
		days_in_queue INTEGER NOT NULL DEFAULT 0,
		is_carried_forward INTEGER NOT NULL DEFAULT 0,
		company_id TEXT,
		FOREIGN KEY (company_id) REFERENCES companies(id)
	);
	CREATE INDEX IF NOT EXISTS idx_signals_type ON signals(signal_type);
	CREATE INDEX IF NOT EXISTS idx_signals_status ON signals(status);
	CREATE INDEX IF NOT EXISTS idx_signals_detected ON signals(first_detected_at);
	CREATE INDEX IF NOT EXISTS idx_signals_score ON signals(priority_score);

	CREATE TABLE IF NOT EXISTS competitor_firms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		full_name TEXT NOT NULL,
		email TEXT,
		title TEXT,
		FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_contacts_company ON contacts(company_id);

	CREATE TABLE IF NOT EXISTS signal_contacts (
		signal_id TEXT NOT NULL,
		contact_id TEXT NOT NULL,
		is_primary INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (signal_id, contact_id),
		FOREIGN KEY (signal_id) REFERENCES signals(id) ON DELETE CASCADE,
		FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
	);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

const signalColumns = `id, signal_type, signal_summary, signal_detail, source_url, source_name,
	first_detected_at, status, claimed_by, priority_score, score_breakdown,
	days_in_queue, is_carried_forward, company_id`

func scanSignal(row interface{ Scan(...any) error }) (*models.Signal, error) {
	var s models.Signal
	var detailJSON sql.NullString
	var claimedBy, scoreBreakdown, companyID, summary, sourceURL, sourceName sql.NullString
	var detectedAt int64
	var carried int

	err := row.Scan(
		&s.ID,
		&s.Type,
		&summary,
		&detailJSON,
		&sourceURL,
		&sourceName,
		&detectedAt,
		&s.Status,
		&claimedBy,
		&s.PriorityScore,
		&scoreBreakdown,
		&s.DaysInQueue,
		&carried,
		&companyID,
	)
	if err != nil {
		return nil, err
	}

	s.Summary = summary.String
	s.SourceURL = sourceURL.String
	s.SourceName = sourceName.String
	s.ClaimedBy = claimedBy.String
	s.ScoreBreakdown = scoreBreakdown.String
	s.CompanyID = companyID.String
	s.FirstDetectedAt = time.Unix(detectedAt, 0)
	s.IsCarriedForward = carried != 0

	if detailJSON.Valid && detailJSON.String != "" {
		if err := json.Unmarshal([]byte(detailJSON.String), &s.Detail); err != nil {
			logger.Warn("Failed to decode signal detail",
				zap.String("signal_id", s.ID),
				zap.Error(err),
			)
			s.Detail = models.Detail{}
		}
	}

	return &s, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// SignalsByTypes fetches all signals of the given types, newest first.
func (c *Client) SignalsByTypes(types []models.SignalType) ([]models.Signal, error) {
	if len(types) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM signals WHERE signal_type IN (%s) ORDER BY first_detected_at DESC`,
		signalColumns, placeholders(len(types)))

	args := make([]any, len(types))
	for i, t := range types {
		args[i] = string(t)
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, *s)
	}

	return signals, rows.Err()
}

func (c *Client) GetSignal(id string) (*models.Signal, error) {
	query := fmt.Sprintf(`SELECT %s FROM signals WHERE id = ?`, signalColumns)

	s, err := scanSignal(c.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signal: %w", err)
	}

	return s, nil
}

// UpdateSignal applies a partial update to one signal and returns the
// updated record. Unknown ids return ErrNotFound.
func (c *Client) UpdateSignal(id string, update models.SignalUpdate) (*models.Signal, error) {
	if update.Empty() {
		return nil, errors.New("no updatable fields supplied")
	}

	var sets []string
	var args []any

	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.ClaimedBy != nil {
		sets = append(sets, "claimed_by = ?")
		args = append(args, *update.ClaimedBy)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE signals SET %s WHERE id = ?`, strings.Join(sets, ", "))

	res, err := c.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update signal: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	logger.Info("Signal updated", zap.String("signal_id", id))

	return c.GetSignal(id)
}

// DeleteSignalsByIDs removes one batch of signals and reports how many rows
// actually went away. Callers are responsible for chunking to a sane batch
// size.
func (c *Client) DeleteSignalsByIDs(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`DELETE FROM signals WHERE id IN (%s)`, placeholders(len(ids)))

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := c.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete signals: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	logger.Debug("Signals deleted", zap.Int("requested", len(ids)), zap.Int64("deleted", n))
	return n, nil
}

// ActiveSignals fetches work-queue signals joined with their owning company,
// ordered by priority score descending.
func (c *Client) ActiveSignals(statuses []models.SignalStatus) ([]models.SignalWithCompany, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT s.id, s.signal_type, s.signal_summary, s.signal_detail, s.source_url, s.source_name,
			s.first_detected_at, s.status, s.claimed_by, s.priority_score, s.score_breakdown,
			s.days_in_queue, s.is_carried_forward, s.company_id,
			c.id, c.name, c.domain, c.relationship_warmth, c.size_range
		FROM signals s
		LEFT JOIN companies c ON c.id = s.company_id
		WHERE s.status IN (%s)
		ORDER BY s.priority_score DESC`, placeholders(len(statuses)))

	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active signals: %w", err)
	}
	defer rows.Close()

	var results []models.SignalWithCompany
	for rows.Next() {
		var s models.Signal
		var detailJSON sql.NullString
		var claimedBy, scoreBreakdown, companyID, summary, sourceURL, sourceName sql.NullString
		var detectedAt int64
		var carried int
		var cID, cName, cDomain, cWarmth, cSize sql.NullString

		err := rows.Scan(
			&s.ID, &s.Type, &summary, &detailJSON, &sourceURL, &sourceName,
			&detectedAt, &s.Status, &claimedBy, &s.PriorityScore, &scoreBreakdown,
			&s.DaysInQueue, &carried, &companyID,
			&cID, &cName, &cDomain, &cWarmth, &cSize,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}

		s.Summary = summary.String
		s.SourceURL = sourceURL.String
		s.SourceName = sourceName.String
		s.ClaimedBy = claimedBy.String
		s.ScoreBreakdown = scoreBreakdown.String
		s.CompanyID = companyID.String
		s.FirstDetectedAt = time.Unix(detectedAt, 0)
		s.IsCarriedForward = carried != 0

		if detailJSON.Valid && detailJSON.String != "" {
			if err := json.Unmarshal([]byte(detailJSON.String), &s.Detail); err != nil {
				s.Detail = models.Detail{}
			}
		}

		row := models.SignalWithCompany{Signal: s}
		if cID.Valid {
			row.Company = &models.Company{
				ID:                 cID.String,
				Name:               cName.String,
				Domain:             cDomain.String,
				RelationshipWarmth: cWarmth.String,
				SizeRange:          cSize.String,
			}
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// CompanyIDsWithContacts returns the set of company ids that have at least
// one contact on file.
func (c *Client) CompanyIDsWithContacts() (map[string]struct{}, error) {
	rows, err := c.db.Query(`SELECT DISTINCT company_id FROM contacts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact companies: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		ids[id] = struct{}{}
	}

	return ids, rows.Err()
}

func (c *Client) SignalContactLinks() ([]models.SignalContact, error) {
	rows, err := c.db.Query(`SELECT signal_id, contact_id, is_primary FROM signal_contacts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal contacts: %w", err)
	}
	defer rows.Close()

	var links []models.SignalContact
	for rows.Next() {
		var link models.SignalContact
		var primary int
		if err := rows.Scan(&link.SignalID, &link.ContactID, &primary); err != nil {
			return nil, fmt.Errorf("failed to scan signal contact: %w", err)
		}
		link.IsPrimary = primary != 0
		links = append(links, link)
	}

	return links, rows.Err()
}

// FirmByName looks up a competitor firm by name, case-insensitively.
func (c *Client) FirmByName(name string) (*models.CompetitorFirm, error) {
	var firm models.CompetitorFirm
	var active int

	err := c.db.QueryRow(
		`SELECT id, name, is_active FROM competitor_firms WHERE name = ? COLLATE NOCASE`,
		name,
	).Scan(&firm.ID, &firm.Name, &active)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get firm: %w", err)
	}

	firm.IsActive = active != 0
	return &firm, nil
}

func (c *Client) SetFirmActive(id string, active bool) error {
	activeInt := 0
	if active {
		activeInt = 1
	}

	res, err := c.db.Exec(`UPDATE competitor_firms SET is_active = ? WHERE id = ?`, activeInt, id)
	if err != nil {
		return fmt.Errorf("failed to update firm: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (c *Client) InsertFirm(firm *models.CompetitorFirm) error {
	activeInt := 0
	if firm.IsActive {
		activeInt = 1
	}

	_, err := c.db.Exec(
		`INSERT INTO competitor_firms (id, name, is_active) VALUES (?, ?, ?)`,
		firm.ID, firm.Name, activeInt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert firm: %w", err)
	}

	logger.Debug("Competitor firm inserted", zap.String("name", firm.Name))
	return nil
}
