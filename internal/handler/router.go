package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cityadmin/portal/internal/metrics"
	"github.com/cityadmin/portal/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer

	// サービス
	AuthService      AuthServiceInterface
	CaseService      CaseServiceInterface
	CaseLister       CaseLister
	AdminUserService AdminUserServiceInterface
	ContactService   ContactServiceInterface

	// ヘルスチェック
	HealthCheck func() error
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Logging
//
// 管理ルート（/admin/*）にはさらに Auth → AdminOnly → RateLimit(General) を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(metrics.NewHTTPMetricsMiddleware(deps.Collector))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService, deps.Collector)
	caseHandler := NewCaseHandler(deps.CaseService, deps.Collector)
	citizenHandler := NewCitizenHandler(deps.CaseLister)
	userHandler := NewAdminUserHandler(deps.AdminUserService)
	contactHandler := NewContactHandler(deps.ContactService)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.HealthCheck != nil {
			if err := deps.HealthCheck(); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheusスクレイプ
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// Googleログイン
	r.Post("/auth/google", authHandler.GoogleLogin)

	// 市民向け: ケース提出と進捗照会
	r.Post("/submit-case", caseHandler.SubmitCase)
	r.Route("/cases/{case_id}", func(r chi.Router) {
		r.Get("/", caseHandler.GetCase)
		r.Get("/audit", caseHandler.GetAuditLog)
	})

	// お問い合わせ（IP単位の専用レート制限付き）
	r.With(deps.RateLimiter.ContactMiddleware()).Post("/contact", contactHandler.SubmitContact)

	// --- 管理者専用ルート ---
	// ミドルウェアスタック: Auth → AdminOnly → RateLimit(General)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(middleware.NewAdminOnlyMiddleware())
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ケース管理
		r.Get("/pending-cases", caseHandler.ListPendingCases)
		r.Get("/hitl-cases", caseHandler.ListHITLCases)
		r.Get("/completed-cases", caseHandler.ListCompletedCases)
		r.Post("/approve-case/{case_id}", caseHandler.ApproveCase)
		r.Post("/resolve-hitl/{case_id}", caseHandler.ResolveHITL)

		// 市民サマリー
		r.Get("/citizens", citizenHandler.ListCitizens)
		r.Get("/citizens/csv", citizenHandler.ExportCitizensCSV)

		// ユーザー管理
		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.ListUsers)
			r.Post("/invite", userHandler.InviteUser)
			r.Put("/{id}/role", userHandler.UpdateRole)
			r.Delete("/{id}", userHandler.DeleteUser)
		})
	})

	return r
}
