// Package service exposes portfolio operations over a repository, guarding
// each portfolio with its own mutex so that no two callers modify the same
// ledger at once. Engines only ever see a freshly loaded ledger snapshot.
package service

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"PortfolioLedger/internal/aggregate"
	"PortfolioLedger/internal/calculator"
	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"
	"PortfolioLedger/internal/performance"
	"PortfolioLedger/internal/recorder"
	"PortfolioLedger/internal/store"
	"PortfolioLedger/internal/strategy"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrInflexible = errors.New("portfolio is inflexible and cannot be modified")
	ErrEmptyFile  = errors.New("no transactions to import")
)

// Service is the entry point used by the API, the CLI and the scheduler.
type Service struct {
	repo   store.Repository
	dir    ledger.Directory
	prices strategy.PriceSource
	perf   *performance.Engine
	rec    recorder.Recorder
	log    zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New wires a Service. rec may be nil.
func New(repo store.Repository, dir ledger.Directory, prices strategy.PriceSource, rec recorder.Recorder, log zerolog.Logger) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{
		repo:   repo,
		dir:    dir,
		prices: prices,
		perf:   performance.NewEngine(prices, log),
		rec:    rec,
		log:    log.With().Str("component", "service").Logger(),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// SetClock replaces the wall clock used for "today".
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) today() time.Time { return model.Day(s.now()) }

// lock acquires the mutex of one portfolio and returns its release.
func (s *Service) lock(name string) func() {
	s.mu.Lock()
	m, ok := s.locks[name]
	if !ok {
		m = &sync.Mutex{}
		s.locks[name] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (s *Service) snapshot(name string) (*ledger.Ledger, error) {
	defer s.lock(name)()
	return s.repo.Load(name)
}

// Portfolios lists every stored portfolio.
func (s *Service) Portfolios() ([]string, error) {
	return s.repo.List()
}

// Order is a manual buy or sell request. A zero Date means today.
type Order struct {
	Symbol     string     `json:"symbol"`
	Date       time.Time  `json:"date"`
	Quantity   float64    `json:"quantity"`
	FeePercent float64    `json:"fee_percent"`
	Kind       model.Kind `json:"kind"`
	Source     string     `json:"-"`
}

func (s *Service) validateOrder(o *Order) model.ValidationErrors {
	errs := model.ValidationErrors{}
	if o.Date.IsZero() {
		o.Date = s.today()
	}
	if _, ok := s.dir.Lookup(o.Symbol); !ok {
		errs.Add("symbol", fmt.Sprintf("unknown company symbol %q", o.Symbol))
	}
	if err := model.CheckDate(o.Date, s.today()); err != nil {
		errs.Add("date", err.Error())
	}
	if !(o.Quantity > 0) || o.Quantity != math.Trunc(o.Quantity) {
		errs.Add("quantity", "quantity must be a positive whole number")
	}
	if o.FeePercent < strategy.MinFeePercent || o.FeePercent > strategy.MaxFeePercent {
		errs.Add("fee", fmt.Sprintf("commission fee %% must be between %d and %d", strategy.MinFeePercent, strategy.MaxFeePercent))
	}
	if o.Kind != model.Buy && o.Kind != model.Sell {
		errs.Add("kind", "type must be BUY or SELL")
	}
	return errs
}

// applyOrders prices each order and adds it to l, enforcing the sell envelope
// against everything already in l.
func (s *Service) applyOrders(l *ledger.Ledger, orders []Order) ([]model.Transaction, error) {
	txs := make([]model.Transaction, 0, len(orders))
	for i := range orders {
		o := orders[i]
		if errs := s.validateOrder(&o); len(errs) > 0 {
			return nil, errs
		}
		price := s.prices.PriceOn(o.Symbol, o.Date)
		if price <= 0 {
			return nil, model.ValidationErrors{"price": fmt.Sprintf("no market price for %s on %s", o.Symbol, model.FormatDate(o.Date))}
		}
		if o.Kind == model.Sell {
			env := aggregate.QuantityEnvelope(l, o.Symbol, o.Date)
			if !env.CanSell(o.Quantity) {
				return nil, model.ValidationErrors{"quantity": fmt.Sprintf("can sell at most %g shares of %s on %s",
					env.Available(), o.Symbol, model.FormatDate(o.Date))}
			}
		}
		name, _ := s.dir.Lookup(o.Symbol)
		fee := calculator.Percent(decimal.NewFromFloat(o.Quantity).Mul(decimal.NewFromFloat(price)), decimal.NewFromFloat(o.FeePercent))
		tx := model.NewTransaction(o.Date, o.Symbol, name, o.Quantity, price, fee.InexactFloat64(), o.Kind)
		l.Add(tx)
		txs = append(txs, tx)
	}
	return txs, nil
}

// CreatePortfolio stores a new portfolio holding the given orders.
func (s *Service) CreatePortfolio(typ model.PortfolioType, orders []Order) (string, error) {
	if typ != model.Flexible && typ != model.Inflexible {
		return "", model.ValidationErrors{"type": "portfolio type must be Flexible or Inflexible"}
	}
	txs, err := s.applyOrders(ledger.New(""), orders)
	if err != nil {
		return "", err
	}
	name, err := s.repo.Create(typ, txs)
	if err != nil {
		return "", fmt.Errorf("create portfolio: %w", err)
	}
	s.recordTrades(name, txs, orders)
	s.log.Info().Str("portfolio", name).Int("transactions", len(txs)).Msg("portfolio created")
	return name, nil
}

// Trade appends one manual order to an existing flexible portfolio.
func (s *Service) Trade(name string, o Order) (model.Transaction, error) {
	if err := s.checkModifiable(name); err != nil {
		return model.Transaction{}, err
	}
	defer s.lock(name)()

	l, err := s.repo.Load(name)
	if err != nil {
		return model.Transaction{}, err
	}
	txs, err := s.applyOrders(l, []Order{o})
	if err != nil {
		return model.Transaction{}, err
	}
	if err := s.repo.Append(name, txs); err != nil {
		return model.Transaction{}, fmt.Errorf("append trade: %w", err)
	}
	s.recordTrades(name, txs, []Order{o})
	s.log.Info().Str("portfolio", name).Str("symbol", txs[0].CompanySymbol).
		Str("kind", string(txs[0].Kind)).Float64("quantity", txs[0].Quantity).Msg("trade recorded")
	return txs[0], nil
}

// Import validates an external ledger file and stores it as a new portfolio.
func (s *Service) Import(typ model.PortfolioType, r io.Reader) (string, error) {
	if typ != model.Flexible && typ != model.Inflexible {
		return "", model.ValidationErrors{"type": "portfolio type must be Flexible or Inflexible"}
	}
	l, err := ledger.ReadCSV(r, "", s.dir)
	if err != nil {
		return "", fmt.Errorf("import: %w", err)
	}
	if l.Len() == 0 {
		return "", ErrEmptyFile
	}
	name, err := s.repo.Create(typ, l.Transactions())
	if err != nil {
		return "", fmt.Errorf("import: %w", err)
	}
	s.log.Info().Str("portfolio", name).Int("transactions", l.Len()).Msg("portfolio imported")
	return name, nil
}

func (s *Service) checkModifiable(name string) error {
	_, typ, err := ledger.ParseID(name)
	if err != nil {
		return fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	if !typ.Modifiable() {
		return ErrInflexible
	}
	return nil
}

func (s *Service) recordTrades(name string, txs []model.Transaction, orders []Order) {
	for i, tx := range txs {
		src := ""
		if i < len(orders) {
			src = orders[i].Source
		}
		if err := s.rec.RecordTrade(&recorder.TradeEvent{Portfolio: name, Transaction: tx, Source: src}); err != nil {
			s.log.Error().Err(err).Str("portfolio", name).Msg("record trade")
		}
	}
}
