package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"dealflow-hq/vega/pkg/advisory"
	"dealflow-hq/vega/pkg/deal"
	"dealflow-hq/vega/pkg/routing"
	"dealflow-hq/vega/pkg/rules"
)

// SQLiteStore implements Store using SQLite for persistence. It uses a
// write-ahead log for concurrent read performance and checkpoints the
// WAL periodically in the background.
type SQLiteStore struct {
	db                 *sql.DB
	dbPath             string
	checkpointInterval time.Duration
	done               chan struct{}
	mu                 sync.RWMutex
	closeOnce          sync.Once

	insertDealStmt     *sql.Stmt
	updateDecisionStmt *sql.Stmt
	getDealStmt        *sql.Stmt
	listDealsStmt      *sql.Stmt
	insertOverrideStmt *sql.Stmt
	markOverriddenStmt *sql.Stmt
	listOverridesStmt  *sql.Stmt
	overridesByDeal    *sql.Stmt
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// DBPath is the path to the database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes.
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLiteStore opens the store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig opens the store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:                 db,
		dbPath:             cfg.DBPath,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go s.checkpointLoop()

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deals (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		deal_type TEXT NOT NULL,
		customer_segment TEXT NOT NULL,
		annual_contract_value REAL NOT NULL,
		discount_percentage REAL NOT NULL,
		payment_terms_days INTEGER NOT NULL,
		region TEXT NOT NULL,
		custom_security_clause INTEGER NOT NULL,
		clause_text TEXT,
		decision_json TEXT,
		evaluation_json TEXT,
		advisory_json TEXT,
		status TEXT NOT NULL DEFAULT 'validated'
	);

	CREATE TABLE IF NOT EXISTS overrides (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		deal_id TEXT NOT NULL REFERENCES deals(id),
		override_reason TEXT NOT NULL,
		override_notes TEXT,
		overridden_by TEXT NOT NULL DEFAULT 'approver',
		created_at TEXT NOT NULL,
		original_decision_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deals_status ON deals(status);
	CREATE INDEX IF NOT EXISTS idx_overrides_deal ON overrides(deal_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertDealStmt, err = s.db.Prepare(`
		INSERT INTO deals
			(id, created_at, deal_type, customer_segment, annual_contract_value,
			 discount_percentage, payment_terms_days, region,
			 custom_security_clause, clause_text, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert deal statement: %w", err)
	}

	s.updateDecisionStmt, err = s.db.Prepare(`
		UPDATE deals
		SET evaluation_json = ?, decision_json = ?, advisory_json = ?, status = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare update decision statement: %w", err)
	}

	const dealColumns = `
		id, created_at, deal_type, customer_segment, annual_contract_value,
		discount_percentage, payment_terms_days, region,
		custom_security_clause, clause_text,
		decision_json, evaluation_json, advisory_json, status`

	s.getDealStmt, err = s.db.Prepare(`SELECT ` + dealColumns + ` FROM deals WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get deal statement: %w", err)
	}

	s.listDealsStmt, err = s.db.Prepare(`SELECT ` + dealColumns + ` FROM deals ORDER BY created_at DESC`)
	if err != nil {
		return fmt.Errorf("failed to prepare list deals statement: %w", err)
	}

	s.insertOverrideStmt, err = s.db.Prepare(`
		INSERT INTO overrides
			(deal_id, override_reason, override_notes, overridden_by,
			 created_at, original_decision_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert override statement: %w", err)
	}

	s.markOverriddenStmt, err = s.db.Prepare(`UPDATE deals SET status = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare mark overridden statement: %w", err)
	}

	const overrideColumns = `
		id, deal_id, override_reason, override_notes, overridden_by,
		created_at, original_decision_json`

	s.listOverridesStmt, err = s.db.Prepare(`SELECT ` + overrideColumns + ` FROM overrides ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return fmt.Errorf("failed to prepare list overrides statement: %w", err)
	}

	s.overridesByDeal, err = s.db.Prepare(`SELECT ` + overrideColumns + ` FROM overrides WHERE deal_id = ? ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return fmt.Errorf("failed to prepare overrides by deal statement: %w", err)
	}

	return nil
}

// SaveDeal inserts a validated deal.
func (s *SQLiteStore) SaveDeal(ctx context.Context, d deal.Deal) error {
	if d.ID == "" {
		return fmt.Errorf("deal id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.insertDealStmt.ExecContext(ctx,
		d.ID,
		d.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(d.DealType),
		string(d.CustomerSegment),
		d.AnnualContractValue,
		d.DiscountPercentage,
		d.PaymentTermsDays,
		string(d.Region),
		boolToInt(d.CustomSecurityClause),
		nullString(d.ClauseText),
		string(StatusValidated),
	)
	if err != nil {
		return fmt.Errorf("failed to save deal: %w", err)
	}
	return nil
}

// UpdateDecision attaches the evaluation outcome to a deal and marks
// it processed.
func (s *SQLiteStore) UpdateDecision(ctx context.Context, dealID string, triggers []rules.Trigger, decision routing.Decision, adv *advisory.Advisory) error {
	evalJSON, err := json.Marshal(triggers)
	if err != nil {
		return fmt.Errorf("failed to marshal triggers: %w", err)
	}
	decisionJSON, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}
	var advisoryJSON sql.NullString
	if adv != nil {
		raw, err := json.Marshal(adv)
		if err != nil {
			return fmt.Errorf("failed to marshal advisory: %w", err)
		}
		advisoryJSON = sql.NullString{String: string(raw), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.updateDecisionStmt.ExecContext(ctx,
		string(evalJSON), string(decisionJSON), advisoryJSON, string(StatusProcessed), dealID)
	if err != nil {
		return fmt.Errorf("failed to update decision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDeal returns one record, or ErrNotFound.
func (s *SQLiteStore) GetDeal(ctx context.Context, dealID string) (*Record, error) {
	if dealID == "" {
		return nil, fmt.Errorf("deal id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := scanRecord(s.getDealStmt.QueryRowContext(ctx, dealID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	return rec, nil
}

// ListDeals returns all records, newest first.
func (s *SQLiteStore) ListDeals(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listDealsStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deal row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deal rows: %w", err)
	}
	return records, nil
}

// SaveOverride records a manual override inside a transaction and
// marks the deal overridden.
func (s *SQLiteStore) SaveOverride(ctx context.Context, ov *Override) error {
	if ov == nil {
		return fmt.Errorf("override cannot be nil")
	}
	if ov.DealID == "" {
		return fmt.Errorf("deal id cannot be empty")
	}
	if ov.CreatedAt.IsZero() {
		ov.CreatedAt = time.Now().UTC()
	}
	if ov.OverriddenBy == "" {
		ov.OverriddenBy = "approver"
	}

	originalJSON, err := json.Marshal(ov.OriginalDecision)
	if err != nil {
		return fmt.Errorf("failed to marshal original decision: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.StmtContext(ctx, s.insertOverrideStmt).ExecContext(ctx,
		ov.DealID,
		ov.Reason,
		nullString(ov.Notes),
		ov.OverriddenBy,
		ov.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(originalJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get override id: %w", err)
	}

	if _, err := tx.StmtContext(ctx, s.markOverriddenStmt).ExecContext(ctx, string(StatusOverridden), ov.DealID); err != nil {
		return fmt.Errorf("failed to mark deal overridden: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit override: %w", err)
	}

	ov.ID = id
	return nil
}

// ListOverrides returns all overrides, newest first.
func (s *SQLiteStore) ListOverrides(ctx context.Context) ([]*Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listOverridesStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()
	return collectOverrides(rows)
}

// ListOverridesForDeal returns the overrides for one deal, newest
// first.
func (s *SQLiteStore) ListOverridesForDeal(ctx context.Context, dealID string) ([]*Override, error) {
	if dealID == "" {
		return nil, fmt.Errorf("deal id cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.overridesByDeal.QueryContext(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()
	return collectOverrides(rows)
}

// Reset deletes all deals and overrides.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM overrides"); err != nil {
		return fmt.Errorf("failed to delete overrides: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM deals"); err != nil {
		return fmt.Errorf("failed to delete deals: %w", err)
	}
	return tx.Commit()
}

// Close releases resources. Close is idempotent and safe to call
// multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		for _, stmt := range []*sql.Stmt{
			s.insertDealStmt, s.updateDecisionStmt, s.getDealStmt,
			s.listDealsStmt, s.insertOverrideStmt, s.markOverriddenStmt,
			s.listOverridesStmt, s.overridesByDeal,
		} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec          Record
		createdAt    string
		security     int
		clauseText   sql.NullString
		decisionJSON sql.NullString
		evalJSON     sql.NullString
		advisoryJSON sql.NullString
		status       string
	)

	err := row.Scan(
		&rec.Deal.ID,
		&createdAt,
		&rec.Deal.DealType,
		&rec.Deal.CustomerSegment,
		&rec.Deal.AnnualContractValue,
		&rec.Deal.DiscountPercentage,
		&rec.Deal.PaymentTermsDays,
		&rec.Deal.Region,
		&security,
		&clauseText,
		&decisionJSON,
		&evalJSON,
		&advisoryJSON,
		&status,
	)
	if err != nil {
		return nil, err
	}

	rec.Deal.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	rec.Deal.CustomSecurityClause = security != 0
	rec.Deal.ClauseText = clauseText.String
	rec.Status = Status(status)

	if decisionJSON.Valid && decisionJSON.String != "" {
		rec.Decision = &routing.Decision{}
		if err := json.Unmarshal([]byte(decisionJSON.String), rec.Decision); err != nil {
			return nil, fmt.Errorf("invalid decision json: %w", err)
		}
	}
	if evalJSON.Valid && evalJSON.String != "" {
		if err := json.Unmarshal([]byte(evalJSON.String), &rec.Triggers); err != nil {
			return nil, fmt.Errorf("invalid evaluation json: %w", err)
		}
	}
	if advisoryJSON.Valid && advisoryJSON.String != "" {
		rec.Advisory = &advisory.Advisory{}
		if err := json.Unmarshal([]byte(advisoryJSON.String), rec.Advisory); err != nil {
			return nil, fmt.Errorf("invalid advisory json: %w", err)
		}
	}

	return &rec, nil
}

func collectOverrides(rows *sql.Rows) ([]*Override, error) {
	var overrides []*Override
	for rows.Next() {
		var (
			ov           Override
			notes        sql.NullString
			createdAt    string
			originalJSON string
		)
		if err := rows.Scan(&ov.ID, &ov.DealID, &ov.Reason, &notes,
			&ov.OverriddenBy, &createdAt, &originalJSON); err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}
		ov.Notes = notes.String

		var err error
		ov.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
		}
		if err := json.Unmarshal([]byte(originalJSON), &ov.OriginalDecision); err != nil {
			return nil, fmt.Errorf("invalid original decision json: %w", err)
		}
		overrides = append(overrides, &ov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating override rows: %w", err)
	}
	return overrides, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
