package models

import "time"

// TTM provenance tags. FY-sourced values carry the fiscal year in the
// tag itself (e.g. "FY_2024") so evidence stays self-describing.
const (
	SourceTTMQuarters = "TTM_QUARTERS"
	SourceMissing     = "MISSING"
)

// TTMValue is a trailing-twelve-month aggregate with provenance.
// Value is nil when the concept could not be derived from the filings.
type TTMValue struct {
	Value  *float64 `json:"value"`
	End    string   `json:"end,omitempty"`
	Source string   `json:"source"`
}

// Fundamentals is a normalized per-ticker snapshot extracted from SEC
// XBRL company facts. It is built once per analysis and never mutated.
type Fundamentals struct {
	Ticker string `json:"ticker"`
	CIK    int    `json:"cik"`

	NetIncomeTTM TTMValue `json:"netIncomeTTM"`
	RevenueTTM   TTMValue `json:"revenueTTM"`
	OCFTTM       TTMValue `json:"ocfTTM"`
	CapexTTM     TTMValue `json:"capexTTM"` // normalized to a positive magnitude

	Equity     *float64 `json:"equity"`
	EquityEnd  string   `json:"equityEnd,omitempty"`
	EquityPrev *float64 `json:"equityPrev"`

	Shares    *float64 `json:"shares"`
	SharesEnd string   `json:"sharesEnd,omitempty"`

	Cash *float64 `json:"cash"`
	Debt *float64 `json:"debt"`

	// Warnings record data-quality issues in natural language. They never
	// abort an analysis; the score engine reads them to degrade confidence.
	Warnings []string `json:"warnings"`

	Evidence Evidence `json:"evidence"`
}

// Evidence records where the headline numbers came from.
type Evidence struct {
	CompanyFactsURL string `json:"secCompanyFactsUrl"`
	NetIncomeSource string `json:"netIncomeSource"`
	EquityEnd       string `json:"equityEnd,omitempty"`
	SharesEnd       string `json:"sharesEnd,omitempty"`
}

// Snapshot is a previously persisted analysis result. It is the optional
// prior input for dilution checks; no storage layer currently produces one.
type Snapshot struct {
	Ticker       string       `json:"ticker"`
	RunAt        time.Time    `json:"runAt"`
	Fundamentals Fundamentals `json:"fundamentals"`
}

// Float returns a pointer to v. Convenience for building optional fields.
func Float(v float64) *float64 { return &v }
