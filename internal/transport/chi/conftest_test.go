package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/db/sqlite"
	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	"github.com/bakwc/ppg-incidents/internal/repository/fts"
	increpo "github.com/bakwc/ppg-incidents/internal/repository/incident"
	"github.com/bakwc/ppg-incidents/internal/repository/vector"
	duplicateuc "github.com/bakwc/ppg-incidents/internal/usecase/duplicate"
	healthuc "github.com/bakwc/ppg-incidents/internal/usecase/health"
	incidentuc "github.com/bakwc/ppg-incidents/internal/usecase/incident"
	searchuc "github.com/bakwc/ppg-incidents/internal/usecase/search"
	statsuc "github.com/bakwc/ppg-incidents/internal/usecase/stats"
)

const testAPIKey = "secret"

// switchEmbedder puts texts mentioning water on one axis and everything else on the other.
type switchEmbedder struct {
	err error
}

func (e *switchEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	if strings.Contains(strings.ToLower(text), "water") {
		return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
	}
	return domain.EmbeddingResult{Embedding: []float32{0, 1}}, nil
}

type testAPI struct {
	handler http.Handler
	embed   *switchEmbedder
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, sqlite.Config{Path: sqlite.MemoryPath})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx, append(increpo.Schema(), fts.Schema, vector.Schema)...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := zap.NewNop()
	repo := increpo.New(store.DB())
	text := fts.New(store.DB())
	vectors := vector.New(store.DB(), 2)
	embed := &switchEmbedder{}
	compiler := filter.NewCompiler(filter.IncidentRegistry())

	server := NewServer(
		incidentuc.New(repo, text, vectors, embed, log),
		searchuc.New(repo, text, vectors, embed, compiler, searchuc.Config{}, log),
		duplicateuc.New(repo, vectors, embed, 0, log),
		statsuc.New(repo, compiler, log),
		healthuc.New(store, nil, nil),
		Config{APIKeys: []string{testAPIKey}},
		log,
	)
	r := chi.NewRouter()
	server.Routes(r)
	return &testAPI{handler: r, embed: embed}
}

// do sends a request; a non-nil body is JSON encoded. Writes are authenticated.
func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func (a *testAPI) save(t *testing.T, inc map[string]any) string {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/api/incident/save", inc)
	if rr.Code != http.StatusCreated {
		t.Fatalf("save: status %d body %s", rr.Code, rr.Body.String())
	}
	var out struct {
		UUID string `json:"uuid"`
	}
	decode(t, rr, &out)
	return out.UUID
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code errorCode) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	var resp errorResponse
	decode(t, rr, &resp)
	if resp.Code != code {
		t.Errorf("code = %q, want %q", resp.Code, code)
	}
}

// seed stores a small verified corpus plus one unverified report.
func (a *testAPI) seed(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{
		"water": a.save(t, map[string]any{
			"title": "Water landing after engine failure", "country": "France", "date": "2022-06-01",
			"city_or_site": "Annecy", "pilot": "J. Doe", "severity": "minor", "wind_speed_ms": 4.0, "verified": true,
		}),
		"tree": a.save(t, map[string]any{
			"title": "Tree landing during thermal", "country": "Spain", "date": "2021-04-10",
			"severity": "serious", "wind_speed_ms": 8.0, "verified": true,
		}),
		"pending": a.save(t, map[string]any{
			"title": "Unreviewed report", "country": "Italy", "date": "2023-01-01",
		}),
	}
}
