package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"PortfolioLedger/internal/directory"
	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDir = directory.New(map[string]string{"AMZN": "Amazon.com Inc", "MSFT": "Microsoft Corporation"})

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func fixedClock() func() time.Time {
	now := time.Date(2022, 11, 5, 14, 3, 9, 0, time.Local)
	return func() time.Time { return now }
}

func newFileStore(t *testing.T) Repository {
	s, err := NewFileStore(t.TempDir(), testDir)
	require.NoError(t, err)
	s.now = fixedClock()
	return s
}

func newSQLiteStore(t *testing.T) Repository {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"), testDir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	s.now = fixedClock()
	return s
}

func TestRepositories(t *testing.T) {
	backends := map[string]func(*testing.T) Repository{
		"file":   newFileStore,
		"sqlite": newSQLiteStore,
	}
	for name, newRepo := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("create load append", func(t *testing.T) { testCreateLoadAppend(t, newRepo(t)) })
			t.Run("unique names", func(t *testing.T) { testUniqueNames(t, newRepo(t)) })
			t.Run("not found", func(t *testing.T) { testNotFound(t, newRepo(t)) })
		})
	}
}

func testCreateLoadAppend(t *testing.T, repo Repository) {
	name, err := repo.Create(model.Flexible, []model.Transaction{
		model.NewTransaction(day("2022-02-01"), "MSFT", "Microsoft Corporation", 3, 300, 5, model.Buy),
		model.NewTransaction(day("2022-01-03"), "AMZN", "Amazon.com Inc", 10, 14, 20, model.Buy),
	})
	require.NoError(t, err)
	assert.Equal(t, "Portfolio_2022-11-05_14:03:09_Flexible", name)

	l, err := repo.Load(name)
	require.NoError(t, err)
	require.Equal(t, 2, l.Len())
	assert.Equal(t, "AMZN", l.Transactions()[0].CompanySymbol)

	require.NoError(t, repo.Append(name, []model.Transaction{
		model.NewTransaction(day("2022-01-10"), "AMZN", "Amazon.com Inc", 4, 15, 1, model.Sell),
	}))
	l, err = repo.Load(name)
	require.NoError(t, err)
	txs := l.Transactions()
	require.Len(t, txs, 3)
	assert.Equal(t, model.Sell, txs[1].Kind)
	assert.Equal(t, 60.0, txs[1].TotalValue)

	names, err := repo.List()
	require.NoError(t, err)
	assert.Equal(t, []string{name}, names)
}

func testUniqueNames(t *testing.T, repo Repository) {
	a, err := repo.Create(model.Inflexible, nil)
	require.NoError(t, err)
	b, err := repo.Create(model.Inflexible, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "Portfolio_2022-11-05_14:03:10_Inflexible", b)

	_, typ, err := ledger.ParseID(b)
	require.NoError(t, err)
	assert.Equal(t, model.Inflexible, typ)
}

func testNotFound(t *testing.T, repo Repository) {
	_, err := repo.Load("Portfolio_2000-01-01_00:00:00_Flexible")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Append("Portfolio_2000-01-01_00:00:00_Flexible", []model.Transaction{
		model.NewTransaction(day("2022-01-10"), "AMZN", "Amazon.com Inc", 1, 1, 1, model.Buy),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, testDir)
	require.NoError(t, err)

	name := "Portfolio_2022-01-01_00:00:00_Flexible"
	content := "Date,CompanyName,CompanySymbol,Quantity,Unit Price,Total Value,Commission Fees,Type\n" +
		"2022-01-03,Amazon.com Inc,AMZN,1.00,14.00,14.00,1.00,BUY\n" +
		"2022-01-04,Amazon.com Inc,AMZN,2.00,14.00,28.00,1.00,SELL\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("x"), 0o644))

	_, err = s.Load(name)
	assert.ErrorIs(t, err, ledger.ErrNegativeHolding)

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{name}, names)
}

func TestSQLiteStore_RejectsUnknownSymbol(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"), testDir)
	require.NoError(t, err)
	defer s.Close()

	name, err := s.Create(model.Flexible, []model.Transaction{
		model.NewTransaction(day("2022-01-03"), "TSLA", "Tesla Inc", 1, 1, 1, model.Buy),
	})
	require.NoError(t, err)

	_, err = s.Load(name)
	assert.ErrorIs(t, err, ledger.ErrUnknownSymbol)
}
