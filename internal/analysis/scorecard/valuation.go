package scorecard

import (
	"github.com/dennissujaya-web/sahamai-superapp/internal/config"
	"github.com/dennissujaya-web/sahamai-superapp/pkg/models"
)

// IntrinsicPerShare estimates a heuristic intrinsic value per share:
// EPS times a fair P/E multiple picked by ROE bucket. This is an explicit,
// auditable heuristic, not a statistical model. Returns nil unless
// trailing net income and shares outstanding are both strictly positive.
func IntrinsicPerShare(f *models.Fundamentals, roe *float64, fair config.FairPETable) *float64 {
	ni := f.NetIncomeTTM.Value
	if ni == nil || f.Shares == nil || *ni <= 0 || *f.Shares <= 0 {
		return nil
	}

	eps := *ni / *f.Shares

	fairPE := fair.Base
	if roe != nil {
		switch {
		case *roe >= 0.20:
			fairPE = fair.ROEGe20
		case *roe >= 0.15:
			fairPE = fair.ROEGe15
		case *roe < 0.08:
			fairPE = fair.ROELt8
		}
	}

	return models.Float(eps * fairPE)
}

// MarginOfSafety is intrinsic/price − 1, absent whenever intrinsic is
// absent or the price is non-positive.
func MarginOfSafety(intrinsic *float64, price float64) *float64 {
	if intrinsic == nil || price <= 0 {
		return nil
	}
	return models.Float(*intrinsic/price - 1)
}
