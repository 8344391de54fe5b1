package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cityadmin/portal/internal/auth"
	"github.com/cityadmin/portal/internal/contact"
	"github.com/cityadmin/portal/internal/metrics"
	"github.com/cityadmin/portal/internal/middleware"
	"github.com/cityadmin/portal/internal/model"
)

// mockContactService はContactServiceInterfaceのモック実装。
type mockContactService struct {
	submitFn func(ctx context.Context, input contact.SubmitInput) (*model.ContactMessage, error)
}

func (m *mockContactService) Submit(ctx context.Context, input contact.SubmitInput) (*model.ContactMessage, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, input)
	}
	return &model.ContactMessage{ID: "msg-1"}, nil
}

func newTestRouter(t *testing.T, issuer *auth.TokenIssuer) http.Handler {
	t.Helper()

	reg := prometheus.NewRegistry()
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		TokenVerifier:     issuer,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Collector:         metrics.NewCollector(reg),
		Gatherer:          reg,
		AuthService:       &mockAuthService{},
		CaseService:       &mockCaseService{},
		CaseLister:        &mockCaseLister{},
		AdminUserService:  &mockAdminUserService{},
		ContactService:    &mockContactService{},
		HealthCheck:       func() error { return nil },
	})
}

// TestRouter_HealthEndpoint は/healthが200を返すことをテストする。
func TestRouter_HealthEndpoint(t *testing.T) {
	issuer := auth.NewTokenIssuer("router-test-secret", time.Hour)
	router := newTestRouter(t, issuer)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestRouter_AdminRoutesRequireAuth は/admin配下がBearerトークンなしで401になることをテストする。
func TestRouter_AdminRoutesRequireAuth(t *testing.T) {
	issuer := auth.NewTokenIssuer("router-test-secret", time.Hour)
	router := newTestRouter(t, issuer)

	paths := []string{
		"/admin/pending-cases",
		"/admin/hitl-cases",
		"/admin/completed-cases",
		"/admin/citizens",
		"/admin/users",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want %d", path, w.Code, http.StatusUnauthorized)
		}
	}
}

// TestRouter_AdminRoutesForbidNonAdmin は/admin配下がuserロールで403になることをテストする。
func TestRouter_AdminRoutesForbidNonAdmin(t *testing.T) {
	issuer := auth.NewTokenIssuer("router-test-secret", time.Hour)
	router := newTestRouter(t, issuer)

	token, err := issuer.Issue(&model.User{ID: "user-1", Role: model.RoleUser})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

// TestRouter_AdminRoutesAllowAdmin は/admin配下がadminロールで通過することをテストする。
func TestRouter_AdminRoutesAllowAdmin(t *testing.T) {
	issuer := auth.NewTokenIssuer("router-test-secret", time.Hour)
	router := newTestRouter(t, issuer)

	token, err := issuer.Issue(&model.User{ID: "admin-1", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/pending-cases", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestRouter_PublicCitizenRoutes は市民向けエンドポイントが認証不要であることをテストする。
func TestRouter_PublicCitizenRoutes(t *testing.T) {
	issuer := auth.NewTokenIssuer("router-test-secret", time.Hour)
	router := newTestRouter(t, issuer)

	req := httptest.NewRequest(http.MethodGet, "/cases/Case%20ID:%201", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// モックはnilケースを返すためハンドラー側の処理に到達していればよい
	if w.Code == http.StatusUnauthorized || w.Code == http.StatusForbidden {
		t.Errorf("citizen route should not require auth, got %d", w.Code)
	}
}

// TestRouter_CORSPreflight はOPTIONSプリフライトが204を返すことをテストする。
func TestRouter_CORSPreflight(t *testing.T) {
	issuer := auth.NewTokenIssuer("router-test-secret", time.Hour)
	router := newTestRouter(t, issuer)

	req := httptest.NewRequest(http.MethodOptions, "/admin/users", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

// TestRouter_MetricsEndpoint は/metricsがPrometheus形式で応答することをテストする。
func TestRouter_MetricsEndpoint(t *testing.T) {
	issuer := auth.NewTokenIssuer("router-test-secret", time.Hour)
	router := newTestRouter(t, issuer)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
