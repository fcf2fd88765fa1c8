package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dennissujaya-web/sahamai-superapp/internal/config"
)

func testBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/tickers.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}}`)
	})
	mux.HandleFunc("/api/xbrl/companyfacts/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
		  "cik": 320193,
		  "entityName": "Apple Inc.",
		  "facts": {
		    "us-gaap": {
		      "NetIncomeLoss": {"units": {"USD": [
		        {"val": 100, "start": "2024-01-01", "end": "2024-12-31", "fy": 2024, "fp": "FY"}
		      ]}},
		      "StockholdersEquity": {"units": {"USD": [{"val": 400, "end": "2024-12-31"}]}}
		    },
		    "dei": {
		      "EntityCommonStockSharesOutstanding": {"units": {"shares": [{"val": 10000000, "end": "2025-01-15"}]}}
		    }
		  }
		}`)
	})
	mux.HandleFunc("/q/d/l/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Date,Close\n2024-12-31,8\n")
	})
	return httptest.NewServer(mux)
}

func testServer(t *testing.T, backendURL string) *Server {
	t.Helper()
	cfg := &config.Config{
		SEC: config.SECConfig{
			UserAgent:  "SahamAI-test/1.0 (contact: test@example.com)",
			TickerURLs: []string{backendURL + "/files/tickers.json"},
			DataURL:    backendURL,
			TimeoutSec: 5,
			Retries:    2,
		},
		Price: config.PriceConfig{BaseURL: backendURL},
		Batch: config.BatchConfig{DelayMs: 0, MaxTickers: 2},
	}
	strat := &config.Strategy{
		FairPE:      config.FairPETable{Base: 12, ROEGe20: 15, ROEGe15: 13, ROELt8: 8},
		MOSRequired: 0.25,
		Scoring: config.Scoring{
			Weights:   config.Weights{Quality: 0.30, Financial: 0.25, Value: 0.30, Integrity: 0.15},
			Quality:   config.QualityTiers{ROEGreat: 0.20, ROEGood: 0.15, ROELow: 0.08, FCFYieldGreat: 0.06, FCFYieldGood: 0.04},
			Financial: config.FinancialTiers{DebtToEquityFail: 2.0, DebtToEquityWarn: 1.0},
			Value:     config.ValueTiers{PEGreat: 12, PEGood: 18, PBWarn: 6},
			Integrity: config.IntegrityTiers{DilutionFail: 0.10, DilutionWarn: 0.03},
		},
	}
	srv := NewServer(cfg, strat)
	go srv.wsHub.Run()
	return srv
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	backend := testBackend(t)
	defer backend.Close()
	srv := testServer(t, backend.URL)

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
		resp := decodeResponse(t, rec)
		if !resp.Success {
			t.Errorf("%s: expected success", path)
		}
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	backend := testBackend(t)
	defer backend.Close()
	srv := testServer(t, backend.URL)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyze?ticker=AAPL", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}

	data, _ := json.Marshal(resp.Data)
	var result struct {
		Ticker  string `json:"ticker"`
		Verdict string `json:"verdict"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if result.Ticker != "AAPL" {
		t.Errorf("expected ticker AAPL, got %s", result.Ticker)
	}
	if result.Verdict == "" {
		t.Error("expected a verdict")
	}
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	backend := testBackend(t)
	defer backend.Close()
	srv := testServer(t, backend.URL)

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"missing ticker", "/api/v1/analyze", http.StatusBadRequest},
		{"overlong ticker", "/api/v1/analyze?ticker=TOOLONGTICKER", http.StatusBadRequest},
		{"unknown ticker", "/api/v1/analyze?ticker=NOPE", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
			if resp := decodeResponse(t, rec); resp.Success {
				t.Error("expected error envelope")
			}
		})
	}
}

func TestBatchEndpointValidation(t *testing.T) {
	backend := testBackend(t)
	defer backend.Close()
	srv := testServer(t, backend.URL) // MaxTickers is 2

	tests := []struct {
		name string
		body string
	}{
		{"invalid body", `not json`},
		{"no tickers", `{"tickers": []}`},
		{"too many tickers", `{"tickers": ["A", "B", "C"]}`},
		{"delay out of range", `{"tickers": ["AAPL"], "delayMs": 5000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/batch", strings.NewReader(tt.body))
			srv.Router().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestBatchEndpoint(t *testing.T) {
	backend := testBackend(t)
	defer backend.Close()
	srv := testServer(t, backend.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch", strings.NewReader(`{"tickers": ["AAPL", "NOPE"]}`))
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeResponse(t, rec)
	data, _ := json.Marshal(resp.Data)
	var batch struct {
		Count   int `json:"count"`
		Results []struct {
			Ticker string `json:"ticker"`
			OK     bool   `json:"ok"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &batch); err != nil {
		t.Fatalf("failed to decode batch: %v", err)
	}
	if batch.Count != 2 {
		t.Fatalf("expected 2 results, got %d", batch.Count)
	}
	if !batch.Results[0].OK {
		t.Error("expected AAPL to succeed")
	}
	if batch.Results[1].OK {
		t.Error("expected NOPE to fail")
	}
}

func TestResolveEndpoint(t *testing.T) {
	backend := testBackend(t)
	defer backend.Close()
	srv := testServer(t, backend.URL)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/resolve/AAPL", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/resolve/NOPE", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown ticker, got %d", rec.Code)
	}
}
