package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sentinela/internal/bootstrap/config"
	domain "sentinela/internal/domain/deviation"
	"sentinela/internal/ports"
	"sentinela/internal/usecase/deviation"
	"sentinela/internal/usecase/session"
)

const (
	testUsersList      = "UsuariosPainelTorre"
	testDeviationsList = "Desvios"
	testEventTitle     = "EVT_PAAGUACLARA_N1_15032024_143000"
)

type stubStore struct {
	lists   map[string][]ports.FieldMap
	updates []ports.ItemUpdate
}

func (s *stubStore) LoadList(_ context.Context, name string, _ int) ([]ports.FieldMap, error) {
	return s.lists[name], nil
}

func (s *stubStore) UpdateItem(_ context.Context, _ int, _ ports.FieldMap) error {
	return nil
}

func (s *stubStore) UpdateBatch(_ context.Context, _ string, updates []ports.ItemUpdate) (int, error) {
	s.updates = append(s.updates, updates...)
	return len(updates), nil
}

type stubAudit struct{}

func (stubAudit) Append(_ context.Context, _ ports.AuditEntryCreate) error { return nil }
func (stubAudit) ListByEvent(_ context.Context, _ string) ([]ports.AuditEntry, error) {
	return nil, nil
}
func (stubAudit) ListRecent(_ context.Context, _ int) ([]ports.AuditEntry, error) {
	return nil, nil
}

type stubUoW struct{}

func (stubUoW) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestServer(t *testing.T) (*Server, *stubStore) {
	t.Helper()

	entered := time.Now().In(domain.ReferenceLocation()).Add(-30 * time.Minute).Format("02/01/2006 15:04")
	store := &stubStore{lists: map[string][]ports.FieldMap{
		testUsersList: {
			ports.FieldMap{
				"ID": 1.0, "Title": "Maria Operadora", "Email": "maria@example.com",
				"Senha": "segredo", "Perfil": "operador", "Area_de_Atuacao": "Água Clara",
			},
		},
		testDeviationsList: {
			ports.FieldMap{
				"ID": 10.0, "Title": testEventTitle, "Placa": "ABC1D23",
				"Data_Hora_Entrada": entered, "Status": "", "Criado": "",
			},
		},
	}}

	cfg := config.StoreConfig{UsersList: testUsersList, DeviationsList: testDeviationsList, ListLimit: 100}
	policy := deviation.NewPolicyProvider(context.Background(), config.PolicyConfig{})
	svc := deviation.NewService(cfg, store, nil, stubAudit{}, stubUoW{}, nil, policy,
		session.NewManager(), deviation.NewMetrics(prometheus.NewRegistry()))
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}

	return NewServer(config.HTTPConfig{Addr: ":0"}, svc), store
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/login", "", map[string]string{
		"email": "maria@example.com", "password": "segredo",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("empty session token")
	}
	return resp.Token
}

func TestLoginAndListEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	token := login(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/events", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("events status = %d", rec.Code)
	}
	var views []deviation.EventView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(views) != 1 || views[0].Title != testEventTitle {
		t.Fatalf("events = %+v", views)
	}
	if views[0].POI != "P.A. Água Clara" {
		t.Fatalf("poi = %q", views[0].POI)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{
		"email": "maria@example.com", "password": "errada",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	for _, path := range []string{"/api/dashboard", "/api/events", "/api/release-options"} {
		rec := doJSON(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", path, rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/api/events", "token-desconhecido", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown token status = %d, want 401", rec.Code)
	}
}

func TestStageSubmitRoundTrip(t *testing.T) {
	srv, store := newTestServer(t)
	router := srv.Router()
	token := login(t, router)

	base := "/api/events/" + testEventTitle

	rec := doJSON(t, router, http.MethodPost, base+"/edits", token, map[string]string{
		"row_id": "10", "field": domain.FieldReason, "value": "Absenteísmo",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("stage edit status = %d, body %s", rec.Code, rec.Body.String())
	}

	release := time.Now().In(domain.ReferenceLocation()).Add(4 * time.Hour)
	rec = doJSON(t, router, http.MethodPost, base+"/release", token, map[string]string{
		"row_id": "10", "date": release.Format("02/01/2006"), "time": release.Format("15:04"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("stage release status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, base+"/submit", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result deviation.SubmitResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode submit result: %v", err)
	}
	if result.Status != domain.StatusFilled {
		t.Fatalf("status = %s, want Filled", result.Status)
	}
	if len(store.updates) != 1 {
		t.Fatalf("store updates = %d, want 1", len(store.updates))
	}
}

func TestSubmitValidationSurfacesDetail(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()
	token := login(t, router)

	base := "/api/events/" + testEventTitle

	rec := doJSON(t, router, http.MethodPost, base+"/edits", token, map[string]string{
		"row_id": "10", "field": domain.FieldReason, "value": "Outros",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("stage edit status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, base+"/submit", token, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("submit status = %d, want 422", rec.Code)
	}
	var resp struct {
		Detail []string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if len(resp.Detail) != 1 {
		t.Fatalf("detail = %v", resp.Detail)
	}
}

func TestApproveForbiddenForOperator(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()
	token := login(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/events/"+testEventTitle+"/approve", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("approve status = %d, want 403", rec.Code)
	}
}

func TestHealthAndMetricsExposed(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
}
