package xbrl

import (
	"fmt"
	"strings"

	"github.com/dennissujaya-web/sahamai-superapp/pkg/models"
)

// Concept tags read from company facts. Equity and shares outstanding have
// a documented fallback tag because filers are inconsistent about which
// one they report under.
const (
	nsGAAP = "us-gaap"
	nsDEI  = "dei"

	tagNetIncome    = "NetIncomeLoss"
	tagRevenues     = "Revenues"
	tagOperatingCF  = "NetCashProvidedByUsedInOperatingActivities"
	tagCapex        = "PaymentsToAcquirePropertyPlantAndEquipment"
	tagEquity       = "StockholdersEquity"
	tagEquityIncNCI = "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest"
	tagCash         = "CashAndCashEquivalentsAtCarryingValue"
	tagLongTermDebt = "LongTermDebt"
	tagSharesDEI    = "EntityCommonStockSharesOutstanding"
	tagSharesGAAP   = "CommonStockSharesOutstanding"

	unitUSD    = "USD"
	unitShares = "shares"
)

// Shares-outstanding sanity band. Values outside it are flagged but kept;
// the score engine treats the flag as a hard anomaly.
const (
	sharesFloor = 1e6
	sharesCeil  = 2e11
)

// ExtractFundamentals normalizes a company facts tree into a fundamentals
// record. It never fails: every missing concept becomes an absent field
// plus one warning, and scoring decides what that absence is worth.
func ExtractFundamentals(ticker string, cik int, tree *FactTree) models.Fundamentals {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	ni := BestTTM(tree.Series(nsGAAP, tagNetIncome, unitUSD))
	if ni.Source == models.SourceMissing {
		warn("net income not found (us-gaap:%s %s)", tagNetIncome, unitUSD)
	}

	rev := BestTTM(tree.Series(nsGAAP, tagRevenues, unitUSD))
	if rev.Source == models.SourceMissing {
		warn("revenue not found (us-gaap:%s %s)", tagRevenues, unitUSD)
	}

	ocf := BestTTM(tree.Series(nsGAAP, tagOperatingCF, unitUSD))
	if ocf.Source == models.SourceMissing {
		warn("operating cash flow not found (us-gaap:%s %s)", tagOperatingCF, unitUSD)
	}

	capex := BestTTM(tree.Series(nsGAAP, tagCapex, unitUSD))
	if capex.Source == models.SourceMissing {
		warn("capital expenditure not found (us-gaap:%s %s)", tagCapex, unitUSD)
	} else if capex.Value != nil {
		// Reported as a cash outflow (negative); normalize to a magnitude.
		v := *capex.Value
		if v < 0 {
			v = -v
		}
		capex.Value = models.Float(v)
	}

	eqSeries := tree.Series(nsGAAP, tagEquity, unitUSD)
	if len(eqSeries) == 0 {
		eqSeries = tree.Series(nsGAAP, tagEquityIncNCI, unitUSD)
	}
	eqLatest := LatestInstant(eqSeries)
	eqPrev := PriorInstant(eqSeries)
	if eqLatest == nil {
		warn("equity not found (us-gaap:%s)", tagEquity)
	}

	shSeries := tree.Series(nsDEI, tagSharesDEI, unitShares)
	if len(shSeries) == 0 {
		shSeries = tree.Series(nsGAAP, tagSharesGAAP, unitShares)
	}
	shLatest := LatestInstant(shSeries)
	if shLatest == nil {
		warn("shares outstanding not found (dei:%s)", tagSharesDEI)
	}

	cashLatest := LatestInstant(tree.Series(nsGAAP, tagCash, unitUSD))
	if cashLatest == nil {
		warn("cash and equivalents not found (us-gaap:%s %s)", tagCash, unitUSD)
	}
	debtLatest := LatestInstant(tree.Series(nsGAAP, tagLongTermDebt, unitUSD))
	if debtLatest == nil {
		warn("long-term debt not found (us-gaap:%s %s)", tagLongTermDebt, unitUSD)
	}

	f := models.Fundamentals{
		Ticker:       strings.ToUpper(strings.TrimSpace(ticker)),
		CIK:          cik,
		NetIncomeTTM: ni,
		RevenueTTM:   rev,
		OCFTTM:       ocf,
		CapexTTM:     capex,
		Warnings:     warnings,
		Evidence: models.Evidence{
			CompanyFactsURL: CompanyFactsURL(cik),
			NetIncomeSource: ni.Source,
		},
	}

	if eqLatest != nil {
		f.Equity = models.Float(eqLatest.Val)
		f.EquityEnd = eqLatest.End
		f.Evidence.EquityEnd = eqLatest.End
	}
	if eqPrev != nil {
		f.EquityPrev = models.Float(eqPrev.Val)
	}
	if shLatest != nil {
		f.Shares = models.Float(shLatest.Val)
		f.SharesEnd = shLatest.End
		f.Evidence.SharesEnd = shLatest.End
		if shLatest.Val < sharesFloor || shLatest.Val > sharesCeil {
			f.Warnings = append(f.Warnings, fmt.Sprintf(
				"shares outstanding outside plausible range (1e6..2e11): %.0f", shLatest.Val))
		}
	}
	if cashLatest != nil {
		f.Cash = models.Float(cashLatest.Val)
	}
	if debtLatest != nil {
		f.Debt = models.Float(debtLatest.Val)
	}

	return f
}

// CompanyFactsURL returns the EDGAR companyfacts URL for a CIK, zero-padded
// to 10 digits per the API's path convention.
func CompanyFactsURL(cik int) string {
	return fmt.Sprintf("https://data.sec.gov/api/xbrl/companyfacts/CIK%010d.json", cik)
}
