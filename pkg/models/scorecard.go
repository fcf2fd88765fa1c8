package models

import "time"

// Metrics are ratios derived from fundamentals plus a market price.
// Every field is nil when an operand is missing or a domain rule makes
// the ratio meaningless (e.g. P/E for a loss-making company). Metrics are
// recomputable at any time and carry no state of their own.
type Metrics struct {
	MarketCap *float64 `json:"mcap"`
	ROE       *float64 `json:"roe"`
	PE        *float64 `json:"pe"`
	PB        *float64 `json:"pb"`
	FCF       *float64 `json:"fcf"`
	FCFYield  *float64 `json:"fcfYield"`
}

// CategoryScore is one scored dimension with its human-readable reasons.
type CategoryScore struct {
	Score   int      `json:"score"` // 0-100
	Reasons []string `json:"reasons"`
}

// ScoreBreakdown is the four-category scorecard plus the weighted total.
type ScoreBreakdown struct {
	Total     int           `json:"total"`
	Quality   CategoryScore `json:"quality"`
	Financial CategoryScore `json:"financial"`
	Value     CategoryScore `json:"value"`
	Integrity CategoryScore `json:"integrity"`
}

// Verdict is the final call for one ticker.
type Verdict string

const (
	VerdictBuy         Verdict = "BUY"
	VerdictHold        Verdict = "HOLD"
	VerdictAvoid       Verdict = "AVOID"
	VerdictNeedsReview Verdict = "NEEDS_REVIEW"
)

// Valuation holds the heuristic intrinsic value and margin of safety.
type Valuation struct {
	IntrinsicPerShare *float64 `json:"intrinsicPerShare"`
	MOS               *float64 `json:"mos"`
	MOSRequired       float64  `json:"mosRequired"`
}

// PriceQuote is the most recent daily close used for the analysis.
type PriceQuote struct {
	Close  float64 `json:"close"`
	Date   string  `json:"date"`
	Source string  `json:"source"`
}

// AnalysisResult is the full outcome for one ticker. When OK is false only
// Ticker and Error are meaningful; in a batch one failed ticker never
// affects the others.
type AnalysisResult struct {
	OK           bool            `json:"ok"`
	RunAt        time.Time       `json:"runAt"`
	Ticker       string          `json:"ticker"`
	Company      string          `json:"company,omitempty"`
	Price        *PriceQuote     `json:"price,omitempty"`
	Fundamentals *Fundamentals   `json:"fundamentals,omitempty"`
	Metrics      *Metrics        `json:"metrics,omitempty"`
	Valuation    *Valuation      `json:"valuation,omitempty"`
	Scorecard    *ScoreBreakdown `json:"scorecard,omitempty"`
	Verdict      Verdict         `json:"verdict,omitempty"`
	Explanation  []string        `json:"explanation,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// BatchResult aggregates per-ticker outcomes of a batch run.
type BatchResult struct {
	OK      bool             `json:"ok"`
	RunAt   time.Time        `json:"runAt"`
	Count   int              `json:"count"`
	Results []AnalysisResult `json:"results"`
}
