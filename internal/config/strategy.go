package config

import (
	"fmt"
	"math"

	"github.com/spf13/viper"
)

// Strategy is the scoring strategy document. Every threshold and weight
// the score/valuation engines use lives here; the engines themselves ship
// no defaults, so a strategy file is mandatory.
type Strategy struct {
	FairPE      FairPETable `mapstructure:"fair_pe"      yaml:"fair_pe"`
	MOSRequired float64     `mapstructure:"mos_required" yaml:"mos_required"`
	Scoring     Scoring     `mapstructure:"scoring"      yaml:"scoring"`
}

// FairPETable selects a fair price/earnings multiple by ROE bucket.
type FairPETable struct {
	Base    float64 `mapstructure:"base"      yaml:"base"`
	ROEGe20 float64 `mapstructure:"roe_ge_20" yaml:"roe_ge_20"`
	ROEGe15 float64 `mapstructure:"roe_ge_15" yaml:"roe_ge_15"`
	ROELt8  float64 `mapstructure:"roe_lt_8"  yaml:"roe_lt_8"`
}

// Scoring holds category weights and per-category thresholds.
type Scoring struct {
	Weights   Weights        `mapstructure:"weights"   yaml:"weights"`
	Quality   QualityTiers   `mapstructure:"quality"   yaml:"quality"`
	Financial FinancialTiers `mapstructure:"financial" yaml:"financial"`
	Value     ValueTiers     `mapstructure:"value"     yaml:"value"`
	Integrity IntegrityTiers `mapstructure:"integrity" yaml:"integrity"`
}

// Weights are the category weights; they must sum to 1.0.
type Weights struct {
	Quality   float64 `mapstructure:"quality"   yaml:"quality"`
	Financial float64 `mapstructure:"financial" yaml:"financial"`
	Value     float64 `mapstructure:"value"     yaml:"value"`
	Integrity float64 `mapstructure:"integrity" yaml:"integrity"`
}

// QualityTiers are ROE and FCF-yield thresholds (decimals, e.g. 0.20).
type QualityTiers struct {
	ROEGreat      float64 `mapstructure:"roe_great"       yaml:"roe_great"`
	ROEGood       float64 `mapstructure:"roe_good"        yaml:"roe_good"`
	ROELow        float64 `mapstructure:"roe_low"         yaml:"roe_low"`
	FCFYieldGreat float64 `mapstructure:"fcf_yield_great" yaml:"fcf_yield_great"`
	FCFYieldGood  float64 `mapstructure:"fcf_yield_good"  yaml:"fcf_yield_good"`
}

// FinancialTiers are debt-to-equity thresholds (ratios, e.g. 2.0).
type FinancialTiers struct {
	DebtToEquityFail float64 `mapstructure:"debt_to_equity_fail" yaml:"debt_to_equity_fail"`
	DebtToEquityWarn float64 `mapstructure:"debt_to_equity_warn" yaml:"debt_to_equity_warn"`
}

// ValueTiers are P/E and P/B thresholds (multiples).
type ValueTiers struct {
	PEGreat float64 `mapstructure:"pe_great" yaml:"pe_great"`
	PEGood  float64 `mapstructure:"pe_good"  yaml:"pe_good"`
	PBWarn  float64 `mapstructure:"pb_warn"  yaml:"pb_warn"`
}

// IntegrityTiers are share-dilution thresholds (decimals, e.g. 0.10).
type IntegrityTiers struct {
	DilutionFail float64 `mapstructure:"dilution_fail" yaml:"dilution_fail"`
	DilutionWarn float64 `mapstructure:"dilution_warn" yaml:"dilution_warn"`
}

// LoadStrategy reads and validates a strategy document from a YAML file.
func LoadStrategy(path string) (*Strategy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading strategy file %s: %w", path, err)
	}

	var s Strategy
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error unmarshaling strategy: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks internal consistency of the strategy document.
func (s *Strategy) Validate() error {
	w := s.Scoring.Weights
	sum := w.Quality + w.Financial + w.Value + w.Integrity
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("category weights must sum to 1.0, got %.4f", sum)
	}
	if w.Quality < 0 || w.Financial < 0 || w.Value < 0 || w.Integrity < 0 {
		return fmt.Errorf("category weights must be non-negative")
	}

	q := s.Scoring.Quality
	if !(q.ROEGreat > q.ROEGood && q.ROEGood > q.ROELow) {
		return fmt.Errorf("quality ROE tiers must be ordered great > good > low")
	}
	if q.FCFYieldGreat <= q.FCFYieldGood {
		return fmt.Errorf("quality FCF-yield tiers must be ordered great > good")
	}

	f := s.Scoring.Financial
	if f.DebtToEquityFail <= f.DebtToEquityWarn {
		return fmt.Errorf("financial debt/equity tiers must be ordered fail > warn")
	}

	val := s.Scoring.Value
	if val.PEGreat >= val.PEGood {
		return fmt.Errorf("value P/E tiers must be ordered great < good")
	}

	i := s.Scoring.Integrity
	if i.DilutionFail <= i.DilutionWarn {
		return fmt.Errorf("integrity dilution tiers must be ordered fail > warn")
	}

	fp := s.FairPE
	if fp.Base <= 0 || fp.ROEGe20 <= 0 || fp.ROEGe15 <= 0 || fp.ROELt8 <= 0 {
		return fmt.Errorf("fair P/E multiples must be positive")
	}

	if s.MOSRequired < 0 {
		return fmt.Errorf("required margin of safety must be non-negative")
	}
	return nil
}
