// Package analysis is the kernel's Performance Analyzer: it turns an
// equity curve, a fill log and an initial capital figure into the return,
// risk and trade-quality metrics of spec.md §4.6, plus an optional
// buy-and-hold baseline and Alpha.
package analysis

import (
	"math"
	"sort"

	"github.com/ridopark/quantback/internal/types"
	"github.com/shopspring/decimal"
)

// Ratio is a decimal value that may be undefined (N/A) — used for Sharpe,
// profit factor and Alpha, each of which has a legitimate divide-by-zero
// or insufficient-sample case the kernel must represent explicitly rather
// than as a misleading zero.
type Ratio struct {
	Value decimal.Decimal
	Valid bool
}

func validRatio(v decimal.Decimal) Ratio { return Ratio{Value: v, Valid: true} }

// String renders "N/A" for an invalid ratio, matching the CSV convention
// of spec.md §4.6/§6.
func (r Ratio) String() string {
	if !r.Valid {
		return "N/A"
	}
	return r.Value.StringFixed(4)
}

// BaselineMetrics is the buy-and-hold comparison computed over the same
// [t_first, t_last] window as the strategy run.
type BaselineMetrics struct {
	Symbol           string
	TotalReturn      decimal.Decimal
	AnnualizedReturn decimal.Decimal
}

// Metrics is the full output of one analyzer pass.
type Metrics struct {
	InitialCapital   decimal.Decimal
	FinalValue       decimal.Decimal
	TotalReturn      decimal.Decimal
	AnnualizedReturn decimal.Decimal

	// MaxDrawdown is clamped to (-1.0, 0.0] — spec.md §9 flags the source's
	// "-100%" drawdown readings as a peak-division-by-zero bug, not a real
	// total-loss event.
	MaxDrawdown        decimal.Decimal
	DrawdownClampedWarn bool

	Sharpe            Ratio
	Sortino           Ratio
	Calmar            Ratio
	VaR95             Ratio
	ExpectedShortfall Ratio

	RoundTrips   int
	Wins         int
	Losses       int
	WinRate      decimal.Decimal
	AvgWin       decimal.Decimal
	AvgLoss      decimal.Decimal
	ProfitFactor Ratio

	Baseline *BaselineMetrics
	Alpha    Ratio
}

// powFloat and sqrtFloat are the kernel's transcendental-math boundary:
// fractional exponents and square roots have no exact decimal
// representation, so this is the one place besides CSV serialization
// (csv.go) where a decimal value crosses into float64 and back. Every
// other computation in this package stays in decimal throughout, per
// spec.md §4.6/§9.
func powFloat(base, exponent decimal.Decimal) decimal.Decimal {
	b, _ := base.Float64()
	e, _ := exponent.Float64()
	return decimal.NewFromFloat(math.Pow(b, e))
}

func sqrtFloat(d decimal.Decimal) decimal.Decimal {
	f, _ := d.Float64()
	return decimal.NewFromFloat(math.Sqrt(f))
}

// AnnualizeReturn compounds totalReturn (e.g. finalValue/initialCapital -
// 1) out to a 365.25-day year, given the number of days the return was
// observed over. Exported so pkg/gridsearch's row-000 baseline
// computation annualizes identically to Compute's own baseline pass,
// rather than reimplementing the formula.
func AnnualizeReturn(totalReturn decimal.Decimal, days float64) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	exponent := decimal.NewFromFloat(365.25 / days)
	ratio := totalReturn.Add(decimal.NewFromInt(1))
	return powFloat(ratio, exponent).Sub(decimal.NewFromInt(1))
}

// Compute runs the full analyzer pass. periodsPerYear is the Sharpe
// annualization constant (252 for daily bars) — spec.md §9 requires it be
// a parameter, not a hard-coded magic number, since the source assumed
// daily bars unconditionally.
func Compute(initialCapital decimal.Decimal, equity []types.EquityPoint, fills []types.Fill, periodsPerYear int, baselineSymbol string, baselineFirstClose, baselineLastClose *decimal.Decimal) Metrics {
	m := Metrics{InitialCapital: initialCapital}

	if len(equity) == 0 {
		m.FinalValue = initialCapital
		m.Alpha = Ratio{}
		m.ProfitFactor = Ratio{}
		m.Sharpe = Ratio{}
		return m
	}

	m.FinalValue = equity[len(equity)-1].Value
	if !initialCapital.IsZero() {
		m.TotalReturn = m.FinalValue.Div(initialCapital).Sub(decimal.NewFromInt(1))
	}

	tFirst := equity[0].Timestamp
	tLast := equity[len(equity)-1].Timestamp
	days := tLast.Sub(tFirst).Hours() / 24
	if days > 0 && !initialCapital.IsZero() {
		exponent := decimal.NewFromFloat(365.25 / days)
		ratio := m.FinalValue.Div(initialCapital)
		m.AnnualizedReturn = powFloat(ratio, exponent).Sub(decimal.NewFromInt(1))
	}

	m.MaxDrawdown, m.DrawdownClampedWarn = maxDrawdown(equity)

	dailyReturns := periodReturns(equity)
	m.Sharpe = sharpeRatio(dailyReturns, periodsPerYear)
	m.Sortino = sortinoRatio(dailyReturns, periodsPerYear)
	m.Calmar = calmarRatio(m.AnnualizedReturn, m.MaxDrawdown)
	m.VaR95, m.ExpectedShortfall = tailRisk(dailyReturns)

	tracker := newFIFOBook()
	var trips []roundTrip
	for _, f := range fills {
		trips = append(trips, tracker.apply(f)...)
	}
	m.RoundTrips, m.Wins, m.Losses, m.WinRate, m.AvgWin, m.AvgLoss, m.ProfitFactor = summarizeRoundTrips(trips)

	if baselineFirstClose != nil && baselineLastClose != nil && !baselineFirstClose.IsZero() {
		baseReturn := baselineLastClose.Div(*baselineFirstClose).Sub(decimal.NewFromInt(1))
		baseAnnualized := AnnualizeReturn(baseReturn, days)
		m.Baseline = &BaselineMetrics{
			Symbol:           baselineSymbol,
			TotalReturn:      baseReturn,
			AnnualizedReturn: baseAnnualized,
		}
		if !baseReturn.IsZero() {
			m.Alpha = validRatio(m.TotalReturn.Div(baseReturn))
		}
	}

	return m
}

// maxDrawdown walks the running peak of the equity curve, returning the
// minimum of equity_t/peak_t - 1, clamped to (-1.0, 0.0]. A peak of zero
// (or negative) would otherwise divide by zero; clampedWarn reports that
// this occurred so the caller can surface a run-end warning instead of a
// silently wrong -100% reading (spec.md §9).
func maxDrawdown(equity []types.EquityPoint) (decimal.Decimal, bool) {
	peak := equity[0].Value
	worst := decimal.Zero
	clamped := false
	floor := decimal.NewFromFloat(-0.999999)

	for _, pt := range equity {
		if pt.Value.GreaterThan(peak) {
			peak = pt.Value
		}
		if peak.IsZero() || peak.IsNegative() {
			clamped = true
			continue
		}
		dd := pt.Value.Div(peak).Sub(decimal.NewFromInt(1))
		if dd.LessThan(floor) {
			dd = floor
			clamped = true
		}
		if dd.LessThan(worst) {
			worst = dd
		}
	}
	return worst, clamped
}

// periodReturns computes simple period-over-period returns from
// consecutive equity points — the "daily returns" of spec.md §4.6 for
// whatever the feed's timeframe actually is.
func periodReturns(equity []types.EquityPoint) []decimal.Decimal {
	if len(equity) < 2 {
		return nil
	}
	out := make([]decimal.Decimal, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev.IsZero() {
			continue
		}
		out = append(out, equity[i].Value.Div(prev).Sub(decimal.NewFromInt(1)))
	}
	return out
}

// sharpeRatio is mean/stdev * sqrt(periodsPerYear), undefined when stdev
// is zero or there are fewer than two observations (spec.md §4.6).
func sharpeRatio(returns []decimal.Decimal, periodsPerYear int) Ratio {
	n := len(returns)
	if n < 2 {
		return Ratio{}
	}

	sum := decimal.Zero
	for _, r := range returns {
		sum = sum.Add(r)
	}
	mean := sum.Div(decimal.NewFromInt(int64(n)))

	sumSq := decimal.Zero
	for _, r := range returns {
		diff := r.Sub(mean)
		sumSq = sumSq.Add(diff.Mul(diff))
	}
	variance := sumSq.Div(decimal.NewFromInt(int64(n - 1)))
	stdev := sqrtFloat(variance)
	if stdev.IsZero() {
		return Ratio{}
	}

	annualize := sqrtFloat(decimal.NewFromInt(int64(periodsPerYear)))
	return validRatio(mean.Div(stdev).Mul(annualize))
}

// sortinoRatio is mean/downside-deviation * sqrt(periodsPerYear), where
// downside deviation only accounts for periods with a negative return.
// Undefined when there are no losing periods (no downside to divide by).
func sortinoRatio(returns []decimal.Decimal, periodsPerYear int) Ratio {
	n := len(returns)
	if n == 0 {
		return Ratio{}
	}

	sum := decimal.Zero
	for _, r := range returns {
		sum = sum.Add(r)
	}
	mean := sum.Div(decimal.NewFromInt(int64(n)))

	sumSq := decimal.Zero
	downside := 0
	for _, r := range returns {
		if r.IsNegative() {
			sumSq = sumSq.Add(r.Mul(r))
			downside++
		}
	}
	if downside == 0 {
		return Ratio{}
	}

	downsideDeviation := sqrtFloat(sumSq.Div(decimal.NewFromInt(int64(downside))))
	if downsideDeviation.IsZero() {
		return Ratio{}
	}

	annualize := sqrtFloat(decimal.NewFromInt(int64(periodsPerYear)))
	return validRatio(mean.Div(downsideDeviation).Mul(annualize))
}

// calmarRatio is annualized return over max drawdown magnitude. Undefined
// when there was no drawdown to divide by.
func calmarRatio(annualizedReturn, maxDrawdown decimal.Decimal) Ratio {
	if maxDrawdown.IsZero() {
		return Ratio{}
	}
	return validRatio(annualizedReturn.Div(maxDrawdown.Abs()))
}

// tailRisk computes historical VaR95 and Expected Shortfall from the
// period-return distribution: VaR95 is the loss at the 5th percentile,
// Expected Shortfall is the mean loss beyond that percentile. Both are
// undefined with fewer than 20 observations, too few for a 5th-percentile
// estimate to mean anything.
func tailRisk(returns []decimal.Decimal) (Ratio, Ratio) {
	if len(returns) < 20 {
		return Ratio{}, Ratio{}
	}

	sorted := make([]decimal.Decimal, len(returns))
	copy(sorted, returns)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	// The tail is the k = floor(5% of n) worst observations (k >= 1 since
	// n >= 20); VaR is the k-th worst, sorted[k-1].
	idx := int(float64(len(sorted))*0.05) - 1
	varReturn := sorted[idx]

	sum := decimal.Zero
	count := 0
	for _, r := range sorted[:idx+1] {
		sum = sum.Add(r)
		count++
	}
	esReturn := sum.Div(decimal.NewFromInt(int64(count)))

	return validRatio(varReturn.Neg()), validRatio(esReturn.Neg())
}
