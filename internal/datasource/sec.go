package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dennissujaya-web/sahamai-superapp/internal/config"
	"github.com/dennissujaya-web/sahamai-superapp/internal/infra"
	"github.com/dennissujaya-web/sahamai-superapp/internal/xbrl"
)

// Cache guardrails for the ticker→CIK mapping. A tiny or empty mapping
// usually means the fetch was blocked or truncated, so it must not be
// trusted for a full day.
const (
	cikTTLOK     = 24 * time.Hour  // healthy mapping
	cikTTLSmall  = 5 * time.Minute // suspiciously small but non-empty
	cikMinSizeOK = 1000            // confidence floor for a complete mapping
)

// Default fetch-with-retry knobs, overridable through config.
const (
	defaultAttemptTimeout = 12 * time.Second
	defaultRetries        = 3
)

var defaultTickerURLs = []string{
	"https://www.sec.gov/files/company_tickers.json",
	"https://www.sec.gov/files/company_tickers_exchange.json",
}

const defaultDataURL = "https://data.sec.gov"

// CIKInfo is one resolved ticker mapping.
type CIKInfo struct {
	CIK   int    `json:"cik"`
	Title string `json:"title"`
}

// SEC fetches ticker→CIK mappings and XBRL company facts from EDGAR.
// It owns the process-wide CIK cache; everything else is stateless.
type SEC struct {
	userAgent      string
	tickerURLs     []string
	dataURL        string
	attemptTimeout time.Duration
	retries        int
	limiter        *infra.RateLimiter
	now            func() time.Time

	mu         sync.RWMutex
	cikMap     map[string]CIKInfo
	cikExpires time.Time

	group singleflight.Group
}

// NewSEC creates an EDGAR source from config. Zero-valued fields fall back
// to defaults; the user agent has no default and is checked lazily, before
// any network I/O, so construction never fails.
func NewSEC(cfg config.SECConfig) *SEC {
	s := &SEC{
		userAgent:      cfg.UserAgent,
		tickerURLs:     cfg.TickerURLs,
		dataURL:        cfg.DataURL,
		attemptTimeout: time.Duration(cfg.TimeoutSec) * time.Second,
		retries:        cfg.Retries,
		limiter:        infra.NewRateLimiter(10, time.Second), // SEC policy: 10 req/s
		now:            time.Now,
	}
	if len(s.tickerURLs) == 0 {
		s.tickerURLs = defaultTickerURLs
	}
	if s.dataURL == "" {
		s.dataURL = defaultDataURL
	}
	if s.attemptTimeout <= 0 {
		s.attemptTimeout = defaultAttemptTimeout
	}
	if s.retries <= 0 {
		s.retries = defaultRetries
	}
	return s
}

// Name returns the data source name.
func (s *SEC) Name() string { return "SEC EDGAR" }

// Resolve maps a stock symbol to its CIK and company title. A symbol with
// no mapping returns ErrTickerNotFound; a cold cache with every source
// failing propagates the fetch error.
func (s *SEC) Resolve(ctx context.Context, ticker string) (CIKInfo, error) {
	raw, alt := normalizeTicker(ticker)

	m, err := s.loadCIKMap(ctx)
	if err != nil {
		return CIKInfo{}, err
	}

	// SEC often lists BRK-B where the user types BRK.B; try both forms.
	if info, ok := m[raw]; ok {
		return info, nil
	}
	if info, ok := m[alt]; ok {
		return info, nil
	}
	return CIKInfo{}, fmt.Errorf("%w: %s", ErrTickerNotFound, raw)
}

// CompanyFacts fetches and decodes the XBRL company facts for a CIK.
func (s *SEC) CompanyFacts(ctx context.Context, cik int) (*xbrl.FactTree, error) {
	if cik <= 0 {
		return nil, fmt.Errorf("invalid CIK: %d", cik)
	}
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%010d.json", s.dataURL, cik)

	data, err := s.fetchJSONWithRetry(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("sec company facts: %w", err)
	}
	return xbrl.DecodeFactTree(data)
}

// normalizeTicker uppercases/trims a symbol and computes the exchange-style
// alternate with "." replaced by "-".
func normalizeTicker(ticker string) (raw, alt string) {
	raw = strings.ToUpper(strings.TrimSpace(ticker))
	alt = strings.ReplaceAll(raw, ".", "-")
	return raw, alt
}

// cachedMap returns the mapping when the cache is still fresh.
func (s *SEC) cachedMap() (map[string]CIKInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cikMap != nil && s.now().Before(s.cikExpires) {
		return s.cikMap, true
	}
	return nil, false
}

// loadCIKMap returns the cached mapping or refreshes it. Concurrent
// cold-cache callers are coalesced into a single in-flight refresh and all
// observe the same result.
func (s *SEC) loadCIKMap(ctx context.Context) (map[string]CIKInfo, error) {
	if m, ok := s.cachedMap(); ok {
		return m, nil
	}

	v, err, _ := s.group.Do("cik-map", func() (any, error) {
		// A waiter queued behind a completed refresh sees the fresh cache.
		if m, ok := s.cachedMap(); ok {
			return m, nil
		}
		return s.refreshCIKMap(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]CIKInfo), nil
}

// refreshCIKMap fetches the candidate ticker files in order, keeps the
// largest mapping, and stops early once the confidence floor is reached.
// A failing source is skipped; the fetch error only surfaces when every
// source failed and nothing was parsed.
//
// Caching guardrail: an empty mapping is never cached (the next call must
// retry), a small one is cached briefly, a complete one for a full day.
func (s *SEC) refreshCIKMap(ctx context.Context) (map[string]CIKInfo, error) {
	best := map[string]CIKInfo{}
	var lastErr error

	for _, url := range s.tickerURLs {
		data, err := s.fetchJSONWithRetry(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		m := buildCIKMap(data)
		if len(m) > len(best) {
			best = m
		}
		if len(best) >= cikMinSizeOK {
			break
		}
	}

	if len(best) == 0 && lastErr != nil {
		return nil, fmt.Errorf("sec ticker mapping: %w", lastErr)
	}

	s.mu.Lock()
	switch {
	case len(best) == 0:
		s.cikMap = nil
	case len(best) < cikMinSizeOK:
		s.cikMap = best
		s.cikExpires = s.now().Add(cikTTLSmall)
	default:
		s.cikMap = best
		s.cikExpires = s.now().Add(cikTTLOK)
	}
	s.mu.Unlock()

	return best, nil
}

// secHeaders builds the identifying headers SEC requires. Missing user
// agent is a configuration error raised before any network call.
func (s *SEC) secHeaders() (map[string]string, error) {
	if s.userAgent == "" {
		return nil, ErrMissingUserAgent
	}
	return map[string]string{
		"User-Agent": s.userAgent,
		"Accept":     "application/json,text/plain,*/*",
	}, nil
}

// fetchJSONWithRetry GETs a URL with a bounded per-attempt timeout.
// 429 and 5xx responses, timeouts, and network errors are retried with
// linearly increasing backoff; any other HTTP status is terminal for
// this URL.
func (s *SEC) fetchJSONWithRetry(ctx context.Context, url string) ([]byte, error) {
	headers, err := s.secHeaders()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		data, err := s.fetchOnce(ctx, url, headers)
		if err == nil {
			return data, nil
		}

		var httpErr *infra.ErrHTTP
		if errors.As(err, &httpErr) {
			if !httpErr.Retryable() {
				return nil, fmt.Errorf("SEC %d from %s: %s", httpErr.StatusCode, url, httpErr.Body)
			}
			lastErr = fmt.Errorf("SEC %d from %s", httpErr.StatusCode, url)
			if serr := infra.Sleep(ctx, time.Duration(attempt+1)*400*time.Millisecond); serr != nil {
				return nil, serr
			}
			continue
		}

		// Timeout or network error.
		lastErr = err
		if serr := infra.Sleep(ctx, time.Duration(attempt+1)*250*time.Millisecond); serr != nil {
			return nil, serr
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("failed to fetch %s", url)
	}
	return nil, lastErr
}

// fetchOnce performs a single attempt under the per-attempt timeout.
func (s *SEC) fetchOnce(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	body, _, err := infra.DoGet(attemptCtx, url, headers)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read SEC response: %w", err)
	}
	return data, nil
}

// --- Ticker file parsing ---

// cikEntry tolerates both numeric and string CIK fields under either of
// the two field names SEC uses across its ticker files.
type cikEntry struct {
	CIKStr any    `json:"cik_str"`
	CIK    any    `json:"cik"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// decodeTickerEntries normalizes the three payload shapes SEC serves —
// a bare array, an object with a "data" array, or an object keyed by
// index — into a flat entry list. The generic object enumeration is the
// fall-through because it accepts anything the other two reject.
func decodeTickerEntries(data []byte) []json.RawMessage {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil {
		return arr
	}

	var wrapper struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Data != nil {
		return wrapper.Data
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err == nil {
		items := make([]json.RawMessage, 0, len(obj))
		for _, v := range obj {
			items = append(items, v)
		}
		return items
	}
	return nil
}

// buildCIKMap parses a ticker file into symbol→CIKInfo. Entries without a
// symbol or a positive numeric CIK are dropped silently.
func buildCIKMap(data []byte) map[string]CIKInfo {
	m := make(map[string]CIKInfo)

	for _, item := range decodeTickerEntries(data) {
		var e cikEntry
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}

		tick := strings.ToUpper(strings.TrimSpace(e.Ticker))
		if tick == "" {
			continue
		}

		cik, ok := parseCIK(e.CIKStr)
		if !ok {
			cik, ok = parseCIK(e.CIK)
		}
		if !ok {
			continue
		}

		m[tick] = CIKInfo{CIK: cik, Title: strings.TrimSpace(e.Title)}
	}

	return m
}

// parseCIK accepts the CIK as a JSON number or a (possibly zero-padded)
// string and requires it to be a positive integer.
func parseCIK(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n > 0 && n == float64(int(n)) {
			return int(n), true
		}
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err == nil && parsed > 0 {
			return int(parsed), true
		}
	}
	return 0, false
}
