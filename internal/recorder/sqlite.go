package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"PortfolioLedger/internal/model"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the audit trail to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets reporting tools read while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			portfolio      TEXT NOT NULL,
			date           TEXT NOT NULL,
			symbol         TEXT NOT NULL,
			kind           TEXT NOT NULL,
			quantity       REAL,
			unit_price     REAL,
			total_value    REAL,
			commission_fee REAL,
			source         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,

		`CREATE TABLE IF NOT EXISTS strategy_runs (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			portfolio    TEXT NOT NULL,
			created      INTEGER NOT NULL,
			trigger_type TEXT,
			amount       REAL,
			fee_percent  REAL,
			transactions INTEGER,
			invested     REAL,
			fees         REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON strategy_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			portfolio  TEXT NOT NULL,
			date       TEXT NOT NULL,
			value      REAL,
			cost_basis REAL,
			holdings   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_portfolio ON snapshots(portfolio, date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTrade(evt *TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := evt.Transaction
	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, portfolio, date, symbol, kind, quantity, unit_price, total_value, commission_fee, source)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Portfolio, model.FormatDate(tx.Date), tx.CompanySymbol, string(tx.Kind),
		tx.Quantity, tx.UnitPrice, tx.TotalValue, tx.CommissionFee, evt.Source,
	)
	return err
}

func (r *SQLiteRecorder) RecordStrategyRun(run *model.StrategyRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := 0
	if run.Created {
		created = 1
	}
	_, err := r.db.Exec(`INSERT INTO strategy_runs
		(id, timestamp, portfolio, created, trigger_type, amount, fee_percent, transactions, invested, fees)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.RanAt.Unix(), run.Portfolio, created, string(run.Trigger),
		run.Amount, run.FeePercent, len(run.Transactions), run.Invested, run.Fees,
	)
	return err
}

func (r *SQLiteRecorder) RecordSnapshot(snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO snapshots
		(timestamp, portfolio, date, value, cost_basis, holdings)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), snap.Portfolio, model.FormatDate(snap.Date),
		snap.Value, snap.CostBasis, snap.Holdings,
	)
	return err
}

// CountRuns returns the number of strategy runs recorded for portfolio.
func (r *SQLiteRecorder) CountRuns(portfolio string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM strategy_runs WHERE portfolio = ?`, portfolio).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
