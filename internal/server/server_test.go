package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/easeaico/truthlab/internal/analysis"
	"github.com/easeaico/truthlab/internal/certificate"
	"github.com/easeaico/truthlab/internal/config"
	"github.com/easeaico/truthlab/internal/types"
)

type fakeRecordAnalyzer struct {
	record types.PersonalityRecord
	err    error
	got    types.AnalysisRequest
}

func (f *fakeRecordAnalyzer) AnalyzeRecord(_ context.Context, req types.AnalysisRequest) (types.PersonalityRecord, error) {
	f.got = req
	return f.record, f.err
}

func sampleRecord() types.PersonalityRecord {
	return types.PersonalityRecord{
		Title:             "The Quiet Strategist",
		Description:       "I plan ahead.",
		ReportDescription: "The subject plans ahead.",
		DarkLine:          "Never shows the whole hand.",
		Traits:            []string{"patient"},
		Weaknesses:        []string{"stubborn"},
	}
}

func newTestRouter(t *testing.T, analyzer RecordAnalyzer) http.Handler {
	t.Helper()
	renderer, err := certificate.NewRenderer(certificate.DefaultConfig())
	if err != nil {
		t.Fatalf("NewRenderer error: %v", err)
	}
	cfg := config.Config{
		CaptureThreshold: 60,
		StorageKey:       "sachi_baat_personality_v15",
		Ads:              config.AdConfig{ClientID: "ca-pub-test", Slots: map[string]string{"HEADER": "1"}},
	}
	engine, err := NewRouter(Options{
		Config:   cfg,
		Analyzer: analyzer,
		Renderer: renderer,
		Now:      func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewRouter error: %v", err)
	}
	return engine
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeReturnsRecord(t *testing.T) {
	analyzer := &fakeRecordAnalyzer{record: sampleRecord()}
	h := newTestRouter(t, analyzer)

	rec := do(h, http.MethodPost, "/api/analyze", `{"image":"AAAA","lang":"en"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got types.PersonalityRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Title != "The Quiet Strategist" || len(got.Weaknesses) != 1 {
		t.Fatalf("unexpected record %+v", got)
	}
	if analyzer.got.Language != types.LanguageEnglish || analyzer.got.Image != "AAAA" {
		t.Fatalf("unexpected request %+v", analyzer.got)
	}
}

func TestAnalyzeErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{analysis.ErrCredentialMissing, http.StatusInternalServerError, "credential_missing"},
		{analysis.ErrCredentialInvalid, http.StatusBadRequest, "credential_invalid"},
		{analysis.ErrTransport, http.StatusBadGateway, "transport"},
		{analysis.ErrMalformedResponse, http.StatusBadGateway, "malformed_response"},
	}
	for _, tc := range cases {
		h := newTestRouter(t, &fakeRecordAnalyzer{err: tc.err})
		rec := do(h, http.MethodPost, "/api/analyze", `{"image":"AAAA","lang":"hi"}`)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.kind, tc.status, rec.Code)
		}
		var body analysis.ErrorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		if body.Kind != tc.kind || body.Error == "" {
			t.Fatalf("%s: unexpected body %+v", tc.kind, body)
		}
	}
}

func TestAnalyzeRejectsBadRequests(t *testing.T) {
	h := newTestRouter(t, &fakeRecordAnalyzer{record: sampleRecord()})

	if rec := do(h, http.MethodPost, "/api/analyze", `not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/api/analyze", `{"lang":"en"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing image, got %d", rec.Code)
	}
	rec := do(h, http.MethodGet, "/api/analyze", "")
	if rec.Code != http.StatusMethodNotAllowed || !strings.Contains(rec.Body.String(), "Method not allowed") {
		t.Fatalf("expected 405 json, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProxyAnalyzerAgainstServer(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t, &fakeRecordAnalyzer{err: analysis.ErrCredentialInvalid}))
	defer srv.Close()

	proxy, err := analysis.NewProxyAnalyzer(srv.URL+"/api/analyze", srv.Client())
	if err != nil {
		t.Fatalf("NewProxyAnalyzer error: %v", err)
	}
	_, err = proxy.Analyze(context.Background(), types.AnalysisRequest{Image: "AAAA", Language: types.LanguageHindi})
	if analysis.KindOf(err) != analysis.KindCredentialInvalid {
		t.Fatalf("expected credential kind to survive the proxy hop, got %v", err)
	}
}

func TestCertificateEndpoint(t *testing.T) {
	h := newTestRouter(t, &fakeRecordAnalyzer{})
	result := analysis.Finalize(sampleRecord(), types.LanguageEnglish, "TRUTH-12345")
	payload, _ := json.Marshal(certificateRequest{Result: &result, Name: "Ayesha Khan", Lang: "en"})

	rec := do(h, http.MethodPost, "/api/certificate", string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "SachiBaat_Report_Ayesha_Khan.png") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	if err != nil || cfg.Width != certificate.Width {
		t.Fatalf("expected a certificate png, got %+v err=%v", cfg, err)
	}
}

func TestCertificateValidation(t *testing.T) {
	h := newTestRouter(t, &fakeRecordAnalyzer{})
	result := analysis.Finalize(sampleRecord(), types.LanguageEnglish, "TRUTH-12345")

	for _, req := range []certificateRequest{
		{Result: &result, Name: "  ", Lang: "en"},
		{Result: &result, Name: "SUBHAN AHMAD", Lang: "en"},
		{Name: "Zain", Lang: "en"},
	} {
		payload, _ := json.Marshal(req)
		rec := do(h, http.MethodPost, "/api/certificate", string(payload))
		if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "error") {
			t.Fatalf("%+v: expected 400 error, got %d", req, rec.Code)
		}
	}
}

func TestConfigAndHealth(t *testing.T) {
	h := newTestRouter(t, &fakeRecordAnalyzer{})

	rec := do(h, http.MethodGet, "/api/config", "")
	var got uiConfigResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if got.Ads.ClientID != "ca-pub-test" || got.CaptureThreshold != 60 || got.InterstitialSeconds != 10 {
		t.Fatalf("unexpected ui config %+v", got)
	}

	if rec := do(h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected healthy, got %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "truthlab_http_requests_total") {
		t.Fatalf("expected metrics output, got %d", rec.Code)
	}
}

func TestCheckProvider(t *testing.T) {
	if err := CheckProvider(config.Config{Provider: config.ProviderProxy}); err == nil {
		t.Fatalf("expected proxy provider to be rejected")
	}
	if err := CheckProvider(config.Config{Provider: config.ProviderGemini}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
