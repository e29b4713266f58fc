package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/yusufkecer/macro-tracker-backend/internal/metrics"
	"github.com/yusufkecer/macro-tracker-backend/internal/middleware"
)

const maxBodyBytes = 1 << 20

type RouterConfig struct {
	JWTSecret      string
	APIKey         string
	AllowedOrigins string
	// TrustProxy keys rate limits on X-Forwarded-For instead of the peer.
	TrustProxy     bool
}

type Handlers struct {
	Auth       *AuthHandler
	Calculator *CalculatorHandler
	Profile    *ProfileHandler
	Metric     *MetricHandler
	Diary      *DiaryHandler
	Food       *FoodHandler
	Health     *HealthHandler
}

func NewRouter(cfg RouterConfig, h Handlers) *mux.Router {
	loginRL := middleware.NewRateLimiter(5, 15*time.Minute, cfg.TrustProxy)
	forgotPasswordRL := middleware.NewRateLimiter(3, 60*time.Minute, cfg.TrustProxy)
	resetPasswordRL := middleware.NewRateLimiter(10, 15*time.Minute, cfg.TrustProxy)

	r := mux.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBytes(maxBodyBytes))

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/health", h.Health.Check).Methods(http.MethodGet, http.MethodOptions)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.APIKeyMiddleware(cfg.APIKey))

	api.Handle("/auth/register", http.HandlerFunc(h.Auth.Register)).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/auth/login", loginRL.Middleware(http.HandlerFunc(h.Auth.Login))).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/auth/forgot-password", forgotPasswordRL.Middleware(http.HandlerFunc(h.Auth.ForgotPassword))).Methods(http.MethodPost, http.MethodOptions)
	api.Handle("/auth/reset-password", resetPasswordRL.Middleware(http.HandlerFunc(h.Auth.ResetPassword))).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/calculator", h.Calculator.Calculate).Methods(http.MethodPost, http.MethodOptions)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	protected.HandleFunc("/profile", h.Profile.Get).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/profile", h.Profile.Update).Methods(http.MethodPatch, http.MethodOptions)
	protected.HandleFunc("/profile/targets", h.Profile.Targets).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/metrics", h.Metric.Create).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/metrics", h.Metric.List).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/diary", h.Diary.Day).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/diary/export", h.Diary.Export).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/diary/entries", h.Diary.CreateEntry).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/diary/entries/{id:[0-9]+}", h.Diary.DeleteEntry).Methods(http.MethodDelete, http.MethodOptions)
	protected.HandleFunc("/dashboard", h.Diary.Dashboard).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/food/search", h.Food.Search).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/food/barcode/{code}", h.Food.Barcode).Methods(http.MethodGet, http.MethodOptions)

	return r
}

type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler reports unhealthy when ping fails. ping may be nil.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
