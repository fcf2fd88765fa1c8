// Package scorecard derives valuation metrics and an explainable,
// category-weighted score from extracted fundamentals and a market price.
//
// Everything here is a pure function of its inputs: identical inputs give
// bit-identical output. Thresholds and weights come exclusively from the
// strategy document; no default is baked in.
package scorecard

import (
	"github.com/dennissujaya-web/sahamai-superapp/pkg/models"
)

// safeDiv divides a by b, returning nil when either operand is absent or
// the denominator is zero. Never returns NaN or Inf.
func safeDiv(a, b *float64) *float64 {
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	return models.Float(*a / *b)
}

// ComputeMetrics derives market cap and ratios from fundamentals and price.
//
// P/E is defined only for strictly positive trailing net income: a
// loss-making company has no meaningful P/E. Likewise P/B requires
// strictly positive equity. These are domain rules, not divide-by-zero
// guards.
func ComputeMetrics(f *models.Fundamentals, price float64) models.Metrics {
	var m models.Metrics

	if f.Shares != nil && *f.Shares > 0 {
		m.MarketCap = models.Float(price * *f.Shares)
	}

	// ROE against average equity when a prior balance exists; a single
	// observed equity is better than nothing.
	avgEquity := f.Equity
	if f.Equity != nil && f.EquityPrev != nil {
		avgEquity = models.Float((*f.Equity + *f.EquityPrev) / 2)
	}
	m.ROE = safeDiv(f.NetIncomeTTM.Value, avgEquity)

	if m.MarketCap != nil && f.NetIncomeTTM.Value != nil && *f.NetIncomeTTM.Value > 0 {
		m.PE = models.Float(*m.MarketCap / *f.NetIncomeTTM.Value)
	}
	if m.MarketCap != nil && f.Equity != nil && *f.Equity > 0 {
		m.PB = models.Float(*m.MarketCap / *f.Equity)
	}

	if f.OCFTTM.Value != nil && f.CapexTTM.Value != nil {
		m.FCF = models.Float(*f.OCFTTM.Value - *f.CapexTTM.Value)
	}
	m.FCFYield = safeDiv(m.FCF, m.MarketCap)

	return m
}
