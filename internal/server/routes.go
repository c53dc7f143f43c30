package server

import (
	"log/slog"
	"net/http"
)

// NewMux wires the API routes behind CORS for corsOrigins, request logging
// and, when limiter is non-nil, per-IP rate limiting.
func NewMux(api *API, limiter *RateLimiter, corsOrigins []string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/warmup/submit", api.SubmitWarmup)
	mux.HandleFunc("POST /api/ctm/analyze", api.AnalyzeCTM)
	mux.HandleFunc("POST /api/exercises/generate", api.GenerateExercises)
	mux.HandleFunc("POST /api/heatmap", api.PreviewHeatmap)

	mux.HandleFunc("GET /api/demo/{name}", api.Demo)
	mux.HandleFunc("GET /api/modules", api.ListModules)
	mux.HandleFunc("GET /api/modules/{id}", api.GetModule)

	mux.HandleFunc("GET /healthz", api.Health)

	var h http.Handler = mux
	if limiter != nil {
		h = limiter.Middleware(h)
	}
	h = RequestLogger(logger)(h)
	return CORS(corsOrigins)(h)
}
