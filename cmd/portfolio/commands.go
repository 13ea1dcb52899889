package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"PortfolioLedger/internal/config"
	"PortfolioLedger/internal/directory"
	"PortfolioLedger/internal/model"
	"PortfolioLedger/internal/notifier"
	"PortfolioLedger/internal/service"
	"PortfolioLedger/internal/strategy"

	"github.com/google/subcommands"
)

const sourceCLI = "CLI"

// stdout receives command output.
var stdout io.Writer = os.Stdout

var commands = []subcommands.Command{
	&listCmd{}, &createCmd{}, &tradeCmd{}, &importCmd{},
	&compositionCmd{}, &valueCmd{}, &costBasisCmd{}, &performanceCmd{}, &dcaCmd{},
	&symbolsCmd{},
}

// parseDay parses yyyy-mm-dd, defaulting to today.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return model.Day(time.Now()), nil
	}
	return model.ParseDate(s)
}

// oneArg returns the single positional argument of f.
func oneArg(f *flag.FlagSet, what string) (string, error) {
	if f.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one %s argument", what)
	}
	return f.Arg(0), nil
}

type listCmd struct{}

func (*listCmd) Name() string             { return "list" }
func (*listCmd) Synopsis() string         { return "list stored portfolios" }
func (*listCmd) Usage() string            { return "portfolio list\n" }
func (*listCmd) SetFlags(_ *flag.FlagSet) {}

func (*listCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withService(func(svc *service.Service) error {
		names, err := svc.Portfolios()
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(stdout, n)
		}
		return nil
	})
}

// parseOrder reads SYMBOL:DATE:QUANTITY:FEE%.
func parseOrder(s string) (service.Order, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return service.Order{}, fmt.Errorf("order %q: want SYMBOL:DATE:QUANTITY:FEE", s)
	}
	date, err := model.ParseDate(parts[1])
	if err != nil {
		return service.Order{}, fmt.Errorf("order %q: %w", s, err)
	}
	qty, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return service.Order{}, fmt.Errorf("order %q: quantity: %w", s, err)
	}
	fee, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return service.Order{}, fmt.Errorf("order %q: fee: %w", s, err)
	}
	return service.Order{
		Symbol: strings.ToUpper(parts[0]), Date: date, Quantity: qty, FeePercent: fee, Kind: model.Buy, Source: sourceCLI,
	}, nil
}

type createCmd struct {
	typ string
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create a portfolio from initial purchases" }
func (*createCmd) Usage() string {
	return `portfolio create [-type Flexible|Inflexible] [SYMBOL:DATE:QUANTITY:FEE ...]

  Creates a portfolio. Each argument buys QUANTITY whole shares of SYMBOL at
  the close of DATE, paying FEE percent commission.
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.typ, "type", string(model.Flexible), "portfolio type (Flexible or Inflexible)")
}

func (c *createCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	typ, err := model.ParsePortfolioType(c.typ)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	orders := make([]service.Order, 0, f.NArg())
	for _, arg := range f.Args() {
		o, err := parseOrder(arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
		orders = append(orders, o)
	}
	return withService(func(svc *service.Service) error {
		name, err := svc.CreatePortfolio(typ, orders)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, name)
		return nil
	})
}

type tradeCmd struct {
	symbol string
	date   string
	qty    float64
	fee    float64
	kind   string
}

func (*tradeCmd) Name() string     { return "trade" }
func (*tradeCmd) Synopsis() string { return "buy or sell shares in a flexible portfolio" }
func (*tradeCmd) Usage() string {
	return "portfolio trade -symbol AAPL -qty 10 -fee 1 [-date 2022-03-01] [-kind BUY|SELL] <portfolio>\n"
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "company symbol")
	f.StringVar(&c.date, "date", "", "trade date (defaults to today)")
	f.Float64Var(&c.qty, "qty", 0, "whole number of shares")
	f.Float64Var(&c.fee, "fee", strategy.MinFeePercent, "commission percent")
	f.StringVar(&c.kind, "kind", string(model.Buy), "BUY or SELL")
}

func (c *tradeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name, err := oneArg(f, "portfolio")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	kind, err := model.ParseKind(c.kind)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	date, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return withService(func(svc *service.Service) error {
		tx, err := svc.Trade(name, service.Order{
			Symbol: strings.ToUpper(c.symbol), Date: date, Quantity: c.qty, FeePercent: c.fee, Kind: kind, Source: sourceCLI,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s %g %s @ %s, fee %s\n", tx.Kind, tx.Quantity, tx.CompanySymbol,
			notifier.FormatUSD(tx.UnitPrice), notifier.FormatUSD(tx.CommissionFee))
		return nil
	})
}

type importCmd struct {
	typ string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a ledger CSV file as a new portfolio" }
func (*importCmd) Usage() string    { return "portfolio import [-type Flexible|Inflexible] <file.csv>\n" }

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.typ, "type", string(model.Flexible), "portfolio type (Flexible or Inflexible)")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path, err := oneArg(f, "file")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	typ, err := model.ParsePortfolioType(c.typ)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return withService(func(svc *service.Service) error {
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		name, err := svc.Import(typ, file)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, name)
		return nil
	})
}

type compositionCmd struct{}

func (*compositionCmd) Name() string             { return "composition" }
func (*compositionCmd) Synopsis() string         { return "show current holdings and average prices" }
func (*compositionCmd) Usage() string            { return "portfolio composition <portfolio>\n" }
func (*compositionCmd) SetFlags(_ *flag.FlagSet) {}

func (*compositionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name, err := oneArg(f, "portfolio")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return withService(func(svc *service.Service) error {
		positions, err := svc.Composition(name)
		if err != nil {
			return err
		}
		printPositions(positions, "AVG PRICE")
		return nil
	})
}

func printPositions(positions map[string]model.Position, priceHeader string) {
	symbols := make([]string, 0, len(positions))
	for s := range positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "SYMBOL\tCOMPANY\tQUANTITY\t%s\tVALUE\tFEES\n", priceHeader)
	for _, s := range symbols {
		p := positions[s]
		fmt.Fprintf(w, "%s\t%s\t%g\t%s\t%s\t%s\n", s, p.CompanyName, p.Quantity,
			notifier.FormatUSD(p.AvgUnitPrice), notifier.FormatUSD(p.TotalValue), notifier.FormatUSD(p.TotalCommission))
	}
	w.Flush()
}

type valueCmd struct {
	date string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "value holdings at the closes of a date" }
func (*valueCmd) Usage() string    { return "portfolio value [-date 2022-03-01] <portfolio>\n" }

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "valuation date (defaults to today)")
}

func (c *valueCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name, err := oneArg(f, "portfolio")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	date, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return withService(func(svc *service.Service) error {
		v, err := svc.Value(name, date)
		if err != nil {
			return err
		}
		printPositions(v.Positions, "CLOSE")
		fmt.Fprintf(stdout, "\nTotal on %s: %s\n", v.Date, notifier.FormatUSD(v.Total))
		return nil
	})
}

type costBasisCmd struct {
	date string
}

func (*costBasisCmd) Name() string     { return "costbasis" }
func (*costBasisCmd) Synopsis() string { return "total invested including commissions up to a date" }
func (*costBasisCmd) Usage() string    { return "portfolio costbasis [-date 2022-03-01] <portfolio>\n" }

func (c *costBasisCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "as-of date (defaults to today)")
}

func (c *costBasisCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name, err := oneArg(f, "portfolio")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	date, err := parseDay(c.date)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return withService(func(svc *service.Service) error {
		cb, err := svc.CostBasis(name, date)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Cost basis on %s: %s\n", model.FormatDate(date), notifier.FormatUSD(cb))
		return nil
	})
}

type performanceCmd struct {
	start string
	end   string
}

func (*performanceCmd) Name() string     { return "performance" }
func (*performanceCmd) Synopsis() string { return "chart portfolio value over a date range" }
func (*performanceCmd) Usage() string {
	return "portfolio performance -start 2021-01-01 [-end 2022-03-01] <portfolio>\n"
}

func (c *performanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "first date of the range")
	f.StringVar(&c.end, "end", "", "last date of the range (defaults to today)")
}

func (c *performanceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name, err := oneArg(f, "portfolio")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	start, err := model.ParseDate(c.start)
	if err != nil {
		fmt.Fprintln(os.Stderr, "-start:", err)
		return subcommands.ExitUsageError
	}
	end, err := parseDay(c.end)
	if err != nil {
		fmt.Fprintln(os.Stderr, "-end:", err)
		return subcommands.ExitUsageError
	}
	return withService(func(svc *service.Service) error {
		res, err := svc.Performance(name, start, end)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, notifier.FormatPerformance(res))
		return nil
	})
}

type dcaCmd struct {
	portfolio string
	typ       string
	amount    float64
	fee       float64
	symbols   string
	weights   string
	date      string
	start     string
	end       string
	frequency string
}

func (*dcaCmd) Name() string     { return "dca" }
func (*dcaCmd) Synopsis() string { return "apply a dollar-cost averaging plan" }
func (*dcaCmd) Usage() string {
	return `portfolio dca -amount 1000 -fee 1 -symbols AAPL:MSFT -weights 60:40
    (-date 2022-03-01 | -start 2021-01-01 [-end 2022-01-01] -freq Monthly)
    [-portfolio <name> | -type Flexible|Inflexible]

  Splits AMOUNT after commission across the symbols by weight and buys at
  the close of the date, or of every point of the recurring schedule. An
  omitted -end runs the schedule up to today. Without -portfolio a new
  portfolio is created.
`
}

func (c *dcaCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolio, "portfolio", "", "existing portfolio to append to")
	f.StringVar(&c.typ, "type", string(model.Flexible), "type of a new portfolio")
	f.Float64Var(&c.amount, "amount", 0, "dollars invested per date")
	f.Float64Var(&c.fee, "fee", strategy.MinFeePercent, "commission percent")
	f.StringVar(&c.symbols, "symbols", "", "colon-separated symbols")
	f.StringVar(&c.weights, "weights", "", "colon-separated percent weights")
	f.StringVar(&c.date, "date", "", "single purchase date")
	f.StringVar(&c.start, "start", "", "schedule start")
	f.StringVar(&c.end, "end", "", "schedule end (defaults to today)")
	f.StringVar(&c.frequency, "freq", "", "schedule frequency (Daily, Monthly or Yearly)")
}

func (c *dcaCmd) plan() (strategy.Plan, error) {
	allocs, err := strategy.ParseAllocations(c.symbols, c.weights)
	if err != nil {
		return strategy.Plan{}, err
	}
	p := strategy.Plan{Amount: c.amount, FeePercent: c.fee, Allocations: allocs}
	switch {
	case c.date != "" && c.start != "":
		return p, fmt.Errorf("use either -date or -start")
	case c.date != "":
		p.Date, err = model.ParseDate(c.date)
		return p, err
	case c.start != "":
		sched := &strategy.Schedule{}
		if sched.Start, err = model.ParseDate(c.start); err != nil {
			return p, err
		}
		if c.end != "" {
			if sched.End, err = model.ParseDate(c.end); err != nil {
				return p, err
			}
		}
		if sched.Granularity, err = model.ParseGranularity(c.frequency); err != nil {
			return p, err
		}
		p.Schedule = sched
		return p, nil
	}
	return p, fmt.Errorf("one of -date or -start is required")
}

func (c *dcaCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	plan, err := c.plan()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	var typ model.PortfolioType
	if c.portfolio == "" {
		if typ, err = model.ParsePortfolioType(c.typ); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitUsageError
		}
	}
	return withService(func(svc *service.Service) error {
		run, err := svc.ApplyStrategy(service.StrategyRequest{Portfolio: c.portfolio, Type: typ, Plan: plan, Trigger: model.TriggerManual})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tSYMBOL\tQUANTITY\tPRICE\tINVESTED\tFEE")
		for _, tx := range run.Transactions {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\n", model.FormatDate(tx.Date), tx.CompanySymbol, tx.Quantity,
				notifier.FormatUSD(tx.UnitPrice), notifier.FormatUSD(tx.TotalValue), notifier.FormatUSD(tx.CommissionFee))
		}
		w.Flush()
		fmt.Fprintf(stdout, "\n%s: invested %s, fees %s\n", run.Portfolio, notifier.FormatUSD(run.Invested), notifier.FormatUSD(run.Fees))
		return nil
	})
}

type symbolsCmd struct{}

func (*symbolsCmd) Name() string             { return "symbols" }
func (*symbolsCmd) Synopsis() string         { return "list the companies that can be traded" }
func (*symbolsCmd) Usage() string            { return "portfolio symbols [PREFIX]\n" }
func (*symbolsCmd) SetFlags(_ *flag.FlagSet) {}

func (*symbolsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "expected at most one prefix argument")
		return subcommands.ExitUsageError
	}
	prefix := strings.ToUpper(f.Arg(0))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	dir, err := directory.Load(cfg.Directory.ListingFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, sym := range dir.Symbols() {
		if !strings.HasPrefix(sym, prefix) {
			continue
		}
		name, _ := dir.Lookup(sym)
		fmt.Fprintf(w, "%s\t%s\n", sym, name)
	}
	w.Flush()
	return subcommands.ExitSuccess
}
