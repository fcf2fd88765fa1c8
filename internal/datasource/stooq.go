package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dennissujaya-web/sahamai-superapp/internal/config"
	"github.com/dennissujaya-web/sahamai-superapp/internal/infra"
	"github.com/dennissujaya-web/sahamai-superapp/pkg/models"
)

// Stooq fetches daily close prices for US tickers from stooq.com.
// A single best-effort CSV fetch: no caching, no retry.
type Stooq struct {
	baseURL string
	limiter *infra.RateLimiter
}

// NewStooq creates a stooq price source.
func NewStooq(cfg config.PriceConfig) *Stooq {
	base := cfg.BaseURL
	if base == "" {
		base = "https://stooq.com"
	}
	return &Stooq{
		baseURL: base,
		limiter: infra.NewRateLimiter(5, time.Second),
	}
}

// Name returns the data source name.
func (s *Stooq) Name() string { return "stooq" }

// LatestClose returns the most recent daily close with a finite numeric
// value. Rows are scanned newest-first; malformed rows are skipped.
func (s *Stooq) LatestClose(ctx context.Context, ticker string) (*models.PriceQuote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	raw, _ := normalizeTicker(ticker)
	symbol := fmt.Sprintf("%s.us", url.QueryEscape(strings.ToLower(raw)))
	u := fmt.Sprintf("%s/q/d/l/?s=%s&i=d", s.baseURL, symbol)

	body, _, err := infra.DoGet(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("stooq: %w", err)
	}
	defer body.Close()

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("stooq CSV parse: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("stooq returned empty CSV for %s", raw)
	}

	dateIdx, closeIdx := -1, -1
	for i, h := range records[0] {
		switch h {
		case "Date":
			dateIdx = i
		case "Close":
			closeIdx = i
		}
	}
	if dateIdx < 0 || closeIdx < 0 {
		return nil, fmt.Errorf("unexpected stooq CSV header for %s", raw)
	}

	for i := len(records) - 1; i >= 1; i-- {
		row := records[i]
		if len(row) <= dateIdx || len(row) <= closeIdx {
			continue
		}
		close, err := strconv.ParseFloat(row[closeIdx], 64)
		if err != nil || math.IsNaN(close) || math.IsInf(close, 0) || row[dateIdx] == "" {
			continue
		}
		return &models.PriceQuote{
			Close:  close,
			Date:   row[dateIdx],
			Source: "stooq",
		}, nil
	}

	return nil, fmt.Errorf("no valid close rows in stooq CSV for %s", raw)
}
