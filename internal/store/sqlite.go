package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps ledgers in a SQLite database.
type SQLiteStore struct {
	db        *sql.DB
	directory ledger.Directory
	mu        sync.Mutex
	now       func() time.Time
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string, directory ledger.Directory) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, directory: directory, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS portfolios (
			name       TEXT PRIMARY KEY,
			type       TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			portfolio      TEXT NOT NULL REFERENCES portfolios(name),
			date           TEXT NOT NULL,
			company_symbol TEXT NOT NULL,
			company_name   TEXT NOT NULL,
			quantity       REAL NOT NULL,
			unit_price     REAL NOT NULL,
			total_value    REAL NOT NULL,
			commission_fee REAL NOT NULL,
			kind           TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_portfolio ON transactions(portfolio, date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM portfolios ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) exists(q interface {
	QueryRow(string, ...any) *sql.Row
}, name string) (bool, error) {
	var n int
	err := q.QueryRow(`SELECT 1 FROM portfolios WHERE name = ?`, name).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) Load(name string) (*ledger.Ledger, error) {
	ok, err := s.exists(s.db, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	rows, err := s.db.Query(`SELECT date, company_symbol, company_name, quantity, unit_price,
		total_value, commission_fee, kind FROM transactions WHERE portfolio = ? ORDER BY date, id`, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var date, kind string
		var tx model.Transaction
		if err := rows.Scan(&date, &tx.CompanySymbol, &tx.CompanyName, &tx.Quantity, &tx.UnitPrice,
			&tx.TotalValue, &tx.CommissionFee, &kind); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		if tx.Date, err = model.ParseDate(date); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		tx.Kind = model.Kind(kind)
		if err := ledger.Validate(tx, s.directory); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	l := ledger.New(name, txs...)
	if err := l.CheckHoldings(); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return l, nil
}

func (s *SQLiteStore) Create(typ model.PortfolioType, txs []model.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("create portfolio: %w", err)
	}
	defer tx.Rollback()

	var lookupErr error
	name := uniqueID(s.now(), typ, func(id string) bool {
		ok, err := s.exists(tx, id)
		if err != nil {
			lookupErr = err
			return false
		}
		return ok
	})
	if lookupErr != nil {
		return "", fmt.Errorf("create portfolio: %w", lookupErr)
	}

	if _, err := tx.Exec(`INSERT INTO portfolios (name, type, created_at) VALUES (?,?,?)`,
		name, string(typ), s.now().Unix()); err != nil {
		return "", fmt.Errorf("create portfolio: %w", err)
	}
	if err := insertTransactions(tx, name, txs); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("create portfolio: %w", err)
	}
	return name, nil
}

func (s *SQLiteStore) Append(name string, txs []model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	defer tx.Rollback()

	ok, err := s.exists(tx, name)
	if err != nil {
		return fmt.Errorf("append %s: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := insertTransactions(tx, name, txs); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTransactions(tx *sql.Tx, portfolio string, txs []model.Transaction) error {
	stmt, err := tx.Prepare(`INSERT INTO transactions
		(portfolio, date, company_symbol, company_name, quantity, unit_price, total_value, commission_fee, kind)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		if _, err := stmt.Exec(portfolio, model.FormatDate(t.Date), t.CompanySymbol, t.CompanyName,
			t.Quantity, t.UnitPrice, t.TotalValue, t.CommissionFee, string(t.Kind)); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
