package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dennissujaya-web/sahamai-superapp/internal/config"
)

const testUserAgent = "SahamAI-test/1.0 (contact: test@example.com)"

// tickerJSON is the classic company_tickers.json shape: an object keyed
// by index.
const tickerJSON = `{
  "0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
  "1": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"},
  "2": {"cik_str": 1067983, "ticker": "BRK-B", "title": "BERKSHIRE HATHAWAY INC"}
}`

func newTestSEC(tickerURL, dataURL string) *SEC {
	return NewSEC(config.SECConfig{
		UserAgent:  testUserAgent,
		TickerURLs: []string{tickerURL},
		DataURL:    dataURL,
		TimeoutSec: 5,
		Retries:    3,
	})
}

func tickerServer(t *testing.T, payload string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.Header.Get("User-Agent") != testUserAgent {
			t.Errorf("expected user agent header, got %q", r.Header.Get("User-Agent"))
		}
		fmt.Fprint(w, payload)
	}))
}

func TestResolve(t *testing.T) {
	srv := tickerServer(t, tickerJSON, nil)
	defer srv.Close()

	s := newTestSEC(srv.URL, "")

	info, err := s.Resolve(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if info.CIK != 320193 {
		t.Errorf("expected CIK 320193, got %d", info.CIK)
	}
	if info.Title != "Apple Inc." {
		t.Errorf("expected title Apple Inc., got %s", info.Title)
	}
}

func TestResolveDotToDashAlternate(t *testing.T) {
	srv := tickerServer(t, tickerJSON, nil)
	defer srv.Close()

	s := newTestSEC(srv.URL, "")

	// SEC lists BRK-B; the user types BRK.B.
	info, err := s.Resolve(context.Background(), "BRK.B")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if info.CIK != 1067983 {
		t.Errorf("expected Berkshire CIK, got %d", info.CIK)
	}
}

func TestResolveNotFound(t *testing.T) {
	srv := tickerServer(t, tickerJSON, nil)
	defer srv.Close()

	s := newTestSEC(srv.URL, "")

	_, err := s.Resolve(context.Background(), "NOPE")
	if !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("expected ErrTickerNotFound, got %v", err)
	}
}

func TestResolveCachesMapping(t *testing.T) {
	var hits int32
	srv := tickerServer(t, largeTickerJSON(), &hits)
	defer srv.Close()

	s := newTestSEC(srv.URL, "")

	for i := 0; i < 3; i++ {
		if _, err := s.Resolve(context.Background(), "T0"); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected 1 fetch for a healthy cached mapping, got %d", got)
	}
}

func TestSmallMappingGetsShortTTL(t *testing.T) {
	var hits int32
	srv := tickerServer(t, tickerJSON, &hits) // 3 entries, below the floor
	defer srv.Close()

	s := newTestSEC(srv.URL, "")

	// Injectable clock: the first resolve caches at t0.
	t0 := time.Now()
	s.now = func() time.Time { return t0 }

	if _, err := s.Resolve(context.Background(), "AAPL"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if _, err := s.Resolve(context.Background(), "MSFT"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected cached mapping within short TTL, got %d fetches", got)
	}

	// Past the 5-minute window the small mapping must be refetched.
	s.now = func() time.Time { return t0.Add(6 * time.Minute) }
	if _, err := s.Resolve(context.Background(), "AAPL"); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("expected refetch after short TTL expiry, got %d fetches", got)
	}
}

func TestEmptyMappingNeverCached(t *testing.T) {
	var hits int32
	srv := tickerServer(t, `{}`, &hits)
	defer srv.Close()

	s := newTestSEC(srv.URL, "")

	for i := 0; i < 2; i++ {
		_, err := s.Resolve(context.Background(), "AAPL")
		if !errors.Is(err, ErrTickerNotFound) {
			t.Fatalf("expected ErrTickerNotFound from empty mapping, got %v", err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("expected a refetch on every call for an empty mapping, got %d fetches", got)
	}
}

func TestConcurrentColdCacheCoalesced(t *testing.T) {
	var hits int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, largeTickerJSON())
	}))
	defer slow.Close()

	s := newTestSEC(slow.URL, "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Resolve(context.Background(), "T1"); err != nil {
				t.Errorf("Resolve failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected concurrent cold-cache resolves coalesced into 1 fetch, got %d", got)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, tickerJSON)
	}))
	defer srv.Close()

	s := newTestSEC(srv.URL, "")

	if _, err := s.Resolve(context.Background(), "AAPL"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestFetchClientErrorIsTerminal(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := newTestSEC("", srv.URL)

	_, err := s.CompanyFacts(context.Background(), 320193)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected no retry on 404, got %d attempts", got)
	}
}

func TestMissingUserAgentFailsBeforeIO(t *testing.T) {
	var hits int32
	srv := tickerServer(t, tickerJSON, &hits)
	defer srv.Close()

	s := NewSEC(config.SECConfig{TickerURLs: []string{srv.URL}})

	_, err := s.Resolve(context.Background(), "AAPL")
	if !errors.Is(err, ErrMissingUserAgent) {
		t.Fatalf("expected ErrMissingUserAgent, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 0 {
		t.Errorf("expected no network call without user agent, got %d", got)
	}
}

func TestCompanyFactsURLAndDecode(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"cik": 320193, "entityName": "Apple Inc.", "facts": {}}`)
	}))
	defer srv.Close()

	s := newTestSEC("", srv.URL)

	tree, err := s.CompanyFacts(context.Background(), 320193)
	if err != nil {
		t.Fatalf("CompanyFacts failed: %v", err)
	}
	if gotPath != "/api/xbrl/companyfacts/CIK0000320193.json" {
		t.Errorf("unexpected request path: %s", gotPath)
	}
	if tree.EntityName != "Apple Inc." {
		t.Errorf("expected entity name, got %s", tree.EntityName)
	}

	if _, err := s.CompanyFacts(context.Background(), 0); err == nil {
		t.Error("expected error for non-positive CIK")
	}
}

func TestDecodeTickerEntriesShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{
			name:    "bare array",
			payload: `[{"cik": 1, "ticker": "A", "title": "A Co"}, {"cik": 2, "ticker": "B", "title": "B Co"}]`,
			want:    2,
		},
		{
			name:    "data wrapper",
			payload: `{"data": [{"cik": 1, "ticker": "A", "title": "A Co"}]}`,
			want:    1,
		},
		{
			name:    "object keyed by index",
			payload: tickerJSON,
			want:    3,
		},
		{
			name:    "garbage",
			payload: `not json`,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := buildCIKMap([]byte(tt.payload))
			if len(m) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(m))
			}
		})
	}
}

func TestBuildCIKMapTolerance(t *testing.T) {
	payload := `[
	  {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
	  {"cik_str": "0000789019", "ticker": "msft", "title": "Microsoft"},
	  {"cik": 1067983, "ticker": "BRK-B", "title": "Berkshire"},
	  {"cik_str": 0, "ticker": "ZERO", "title": "Zero CIK"},
	  {"cik_str": 111, "ticker": "", "title": "No Symbol"},
	  {"cik_str": "abc", "ticker": "BAD", "title": "Bad CIK"}
	]`

	m := buildCIKMap([]byte(payload))
	if len(m) != 3 {
		t.Fatalf("expected 3 valid entries, got %d: %v", len(m), m)
	}
	if m["MSFT"].CIK != 789019 {
		t.Errorf("expected string CIK parsed for MSFT, got %d", m["MSFT"].CIK)
	}
	if m["AAPL"].CIK != 320193 {
		t.Errorf("expected numeric CIK for AAPL, got %d", m["AAPL"].CIK)
	}
}

func TestNormalizeTicker(t *testing.T) {
	raw, alt := normalizeTicker("  brk.b ")
	if raw != "BRK.B" {
		t.Errorf("expected raw BRK.B, got %s", raw)
	}
	if alt != "BRK-B" {
		t.Errorf("expected alt BRK-B, got %s", alt)
	}
}

// largeTickerJSON builds a mapping above the confidence floor so it gets
// the long TTL.
func largeTickerJSON() string {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 1200; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"cik": %d, "ticker": "T%d", "title": "Company %d"}`, i+1, i, i)
	}
	b.WriteString("]")
	return b.String()
}
