package notifier

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"

	"PortfolioLedger/internal/model"

	"github.com/Rhymond/go-money"
)

// FormatUSD renders a dollar amount with currency symbol and grouping.
func FormatUSD(amount float64) string {
	return money.New(int64(math.Round(amount*100)), money.USD).Display()
}

// FormatStrategyRun describes the purchases of one plan run.
func FormatStrategyRun(planID string, run *model.StrategyRun) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛒 <b>Plan %s</b> | %s\n", html.EscapeString(planID), run.RanAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Portfolio: %s\n\n", html.EscapeString(run.Portfolio))
	for _, tx := range run.Transactions {
		fmt.Fprintf(&b, "  %s %.2f @ %s = %s\n", tx.CompanySymbol, tx.Quantity, FormatUSD(tx.UnitPrice), FormatUSD(tx.TotalValue))
	}
	fmt.Fprintf(&b, "\nInvested: %s\nFees: %s\n", FormatUSD(run.Invested), FormatUSD(run.Fees))
	return b.String()
}

// FormatSummary reports value and cost basis of a portfolio.
func FormatSummary(name, date string, value, costBasis float64, holdings int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>%s</b> | %s\n\n", html.EscapeString(name), date)
	fmt.Fprintf(&b, "Value: %s\n", FormatUSD(value))
	fmt.Fprintf(&b, "Cost basis: %s\n", FormatUSD(costBasis))
	if costBasis > 0 {
		fmt.Fprintf(&b, "Return: %+.2f%%\n", (value-costBasis)/costBasis*100)
	}
	fmt.Fprintf(&b, "Holdings: %d\n", holdings)
	return b.String()
}

// FormatComposition lists positions ordered by symbol.
func FormatComposition(name string, positions map[string]model.Position) string {
	if len(positions) == 0 {
		return fmt.Sprintf("%s holds nothing", html.EscapeString(name))
	}
	symbols := make([]string, 0, len(positions))
	for s := range positions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(name))
	for _, s := range symbols {
		p := positions[s]
		fmt.Fprintf(&b, "  %s %g @ %s\n", s, p.Quantity, FormatUSD(p.AvgUnitPrice))
	}
	return b.String()
}

// FormatPerformance draws one bar of '*' per point.
func FormatPerformance(res *model.PerformanceResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Performance of %s (%s)\n\n", res.PortfolioName, res.Granularity)
	width := 0
	for _, p := range res.Points {
		width = max(width, len(p.Label))
	}
	for _, p := range res.Points {
		fmt.Fprintf(&b, "%-*s: %s\n", width, p.Label, strings.Repeat("*", int(p.Value)))
	}
	fmt.Fprintf(&b, "\nScale: * = %s\n", FormatUSD(res.ScaleFactor))
	return b.String()
}

// FormatPlans lists recurring plan state.
func FormatPlans(plans []model.PlanState) string {
	if len(plans) == 0 {
		return "No plan has run yet."
	}
	var b strings.Builder
	b.WriteString("📅 <b>Recurring plans</b>\n\n")
	for _, p := range plans {
		fmt.Fprintf(&b, "%s → %s\n  last run %s, %d runs, invested %s, fees %s\n",
			html.EscapeString(p.PlanID), html.EscapeString(p.Portfolio), p.LastRunDate, p.Runs,
			FormatUSD(p.TotalInvested), FormatUSD(p.TotalFees))
	}
	return b.String()
}
