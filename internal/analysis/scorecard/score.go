package scorecard

import (
	"fmt"
	"math"
	"regexp"

	"github.com/dennissujaya-web/sahamai-superapp/internal/config"
	"github.com/dennissujaya-web/sahamai-superapp/pkg/models"
)

// hardAnomalyRe matches data-quality warnings that should withhold the
// verdict entirely, e.g. shares outstanding outside the plausibility band.
var hardAnomalyRe = regexp.MustCompile(`(?i)outside plausible range|out of range`)

// Result is the full scoring outcome for one ticker.
type Result struct {
	Breakdown   models.ScoreBreakdown
	Verdict     models.Verdict
	MOS         *float64
	Intrinsic   *float64
	Explanation []string
}

// Build scores fundamentals against the strategy document. Missing data
// never aborts scoring; it lowers category scores and, together with hard
// anomalies, steers the verdict to NEEDS_REVIEW. prior may be nil, in which
// case the dilution check is skipped with a reason.
func Build(f *models.Fundamentals, price float64, prior *models.Snapshot, strat *config.Strategy) Result {
	m := ComputeMetrics(f, price)

	var explanation []string
	hardWarn := false
	for _, w := range f.Warnings {
		if hardAnomalyRe.MatchString(w) {
			hardWarn = true
			break
		}
	}

	quality, qReasons := scoreQuality(m, strat.Scoring.Quality)
	financial, fReasons := scoreFinancial(f, strat.Scoring.Financial)
	value, vReasons := scoreValue(m, strat.Scoring.Value)
	integrity, iReasons := scoreIntegrity(f, prior, strat.Scoring.Integrity)

	if hardWarn {
		// Deliberate under-confidence: keep the computation visible but cap
		// every category instead of pretending the inputs are trustworthy.
		explanation = append(explanation, "data anomaly detected — verdict withheld, review the warnings before acting")
		quality = math.Min(quality, 0.45)
		financial = math.Min(financial, 0.45)
		value = math.Min(value, 0.45)
		integrity = math.Min(integrity, 0.45)
	}

	w := strat.Scoring.Weights
	total := w.Quality*quality + w.Financial*financial + w.Value*value + w.Integrity*integrity

	intrinsic := IntrinsicPerShare(f, m.ROE, strat.FairPE)
	mos := MarginOfSafety(intrinsic, price)

	// Anomaly and data absence both short-circuit to the conservative
	// "no confident opinion" state before any magnitude comparison.
	verdict := models.VerdictNeedsReview
	if !hardWarn && mos != nil {
		switch {
		case *mos >= strat.MOSRequired:
			verdict = models.VerdictBuy
		case *mos >= 0:
			verdict = models.VerdictHold
		default:
			verdict = models.VerdictAvoid
		}
	}

	return Result{
		Breakdown: models.ScoreBreakdown{
			Total:     roundPct(total),
			Quality:   models.CategoryScore{Score: roundPct(quality), Reasons: qReasons},
			Financial: models.CategoryScore{Score: roundPct(financial), Reasons: fReasons},
			Value:     models.CategoryScore{Score: roundPct(value), Reasons: vReasons},
			Integrity: models.CategoryScore{Score: roundPct(integrity), Reasons: iReasons},
		},
		Verdict:     verdict,
		MOS:         mos,
		Intrinsic:   intrinsic,
		Explanation: explanation,
	}
}

func scoreQuality(m models.Metrics, tiers config.QualityTiers) (float64, []string) {
	var reasons []string
	score := 0.5

	if m.ROE != nil {
		roe := *m.ROE
		switch {
		case roe >= tiers.ROEGreat:
			score = 1.0
			reasons = append(reasons, fmt.Sprintf("strong ROE (%.1f%%)", roe*100))
		case roe >= tiers.ROEGood:
			score = 0.8
			reasons = append(reasons, fmt.Sprintf("good ROE (%.1f%%)", roe*100))
		case roe < tiers.ROELow:
			score = 0.3
			reasons = append(reasons, fmt.Sprintf("low ROE (%.1f%%) — check whether temporary", roe*100))
		default:
			score = 0.55
			reasons = append(reasons, fmt.Sprintf("moderate ROE (%.1f%%)", roe*100))
		}
	} else {
		score = 0.4
		reasons = append(reasons, "ROE unavailable — quality score held back")
	}

	if m.FCFYield != nil {
		fy := *m.FCFYield
		switch {
		case fy >= tiers.FCFYieldGreat:
			score = math.Min(1, score+0.15)
			reasons = append(reasons, fmt.Sprintf("high FCF yield (%.1f%%)", fy*100))
		case fy >= tiers.FCFYieldGood:
			score = math.Min(1, score+0.08)
			reasons = append(reasons, fmt.Sprintf("decent FCF yield (%.1f%%)", fy*100))
		}
	}

	return score, reasons
}

func scoreFinancial(f *models.Fundamentals, tiers config.FinancialTiers) (float64, []string) {
	var reasons []string
	score := 0.55

	// Debt/equity is only meaningful against strictly positive equity.
	var dte *float64
	if f.Debt != nil && f.Equity != nil && *f.Equity > 0 {
		dte = models.Float(*f.Debt / *f.Equity)
	}

	if dte != nil {
		switch {
		case *dte >= tiers.DebtToEquityFail:
			score = 0.2
			reasons = append(reasons, fmt.Sprintf("debt/equity high (%.2fx)", *dte))
		case *dte >= tiers.DebtToEquityWarn:
			score = 0.4
			reasons = append(reasons, fmt.Sprintf("debt/equity somewhat high (%.2fx)", *dte))
		default:
			score = 0.8
			reasons = append(reasons, fmt.Sprintf("debt/equity healthy (%.2fx)", *dte))
		}
	} else {
		score = 0.45
		reasons = append(reasons, "debt/equity cannot be computed (missing debt or equity data)")
	}

	return score, reasons
}

func scoreValue(m models.Metrics, tiers config.ValueTiers) (float64, []string) {
	var reasons []string
	score := 0.5

	if m.PE != nil {
		pe := *m.PE
		switch {
		case pe <= tiers.PEGreat:
			score = 0.95
			reasons = append(reasons, fmt.Sprintf("P/E low (%.1fx)", pe))
		case pe <= tiers.PEGood:
			score = 0.75
			reasons = append(reasons, fmt.Sprintf("P/E reasonable (%.1fx)", pe))
		default:
			score = 0.35
			reasons = append(reasons, fmt.Sprintf("P/E high (%.1fx)", pe))
		}
	} else {
		score = 0.35
		reasons = append(reasons, "P/E unavailable (net income missing or negative)")
	}

	if m.PB != nil && *m.PB >= tiers.PBWarn {
		reasons = append(reasons, fmt.Sprintf("P/B high (%.1fx) — needs growth/quality to justify", *m.PB))
		score = math.Max(0.15, score-0.12)
	}

	return score, reasons
}

func scoreIntegrity(f *models.Fundamentals, prior *models.Snapshot, tiers config.IntegrityTiers) (float64, []string) {
	var reasons []string
	score := 0.55

	var priorShares *float64
	if prior != nil {
		priorShares = prior.Fundamentals.Shares
	}

	if f.Shares != nil && priorShares != nil && *priorShares > 0 {
		dilution := (*f.Shares - *priorShares) / *priorShares
		switch {
		case dilution >= tiers.DilutionFail:
			score = 0.2
			reasons = append(reasons, fmt.Sprintf("heavy dilution (+%.1f%%)", dilution*100))
		case dilution >= tiers.DilutionWarn:
			score = 0.4
			reasons = append(reasons, fmt.Sprintf("some dilution (+%.1f%%)", dilution*100))
		default:
			score = 0.7
			reasons = append(reasons, "no sign of heavy dilution (vs prior snapshot)")
		}
	} else {
		reasons = append(reasons, "cannot check dilution yet (no prior snapshot)")
	}

	return score, reasons
}

// roundPct converts a [0,1] score to a rounded integer percentage.
func roundPct(v float64) int {
	return int(math.Round(v * 100))
}
