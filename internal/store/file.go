package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"
)

const fileExt = ".csv"

// FileStore keeps one CSV ledger file per portfolio in a directory.
type FileStore struct {
	dir       string
	directory ledger.Directory
	mu        sync.Mutex
	now       func() time.Time
}

// NewFileStore creates dir if needed. directory validates symbols on load.
func NewFileStore(dir string, directory ledger.Directory) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create portfolio dir: %w", err)
	}
	return &FileStore{dir: dir, directory: directory, now: time.Now}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func (s *FileStore) exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	var names []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), fileExt)
		if e.IsDir() || !ok || !ledger.IsID(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Load(name string) (*ledger.Ledger, error) {
	f, err := os.Open(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("open portfolio: %w", err)
	}
	defer f.Close()

	l, err := ledger.ReadCSV(f, name, s.directory)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return l, nil
}

func (s *FileStore) Create(typ model.PortfolioType, txs []model.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := uniqueID(s.now(), typ, s.exists)
	tmp, err := os.CreateTemp(s.dir, ".portfolio-*")
	if err != nil {
		return "", fmt.Errorf("create portfolio: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := ledger.WriteCSV(tmp, ledger.New(name, txs...).Transactions()); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("create portfolio: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return "", fmt.Errorf("create portfolio: %w", err)
	}
	return name, nil
}

func (s *FileStore) Append(name string, txs []model.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	f, err := os.OpenFile(s.path(name), os.O_WRONLY|os.O_APPEND, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("open portfolio: %w", err)
	}
	if err := ledger.AppendCSV(f, txs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
