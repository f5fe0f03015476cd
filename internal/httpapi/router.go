// Package httpapi is the thin routing layer over the analyzer. It decodes
// loose game uploads, normalizes them, and hands the orchestrator a strict
// request; all analysis semantics live below it.
package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"

	"github.com/rs/zerolog"

	"github.com/blunderlab/api/internal/analysis"
	"github.com/blunderlab/api/internal/game"
)

// Handler routes analysis requests.
type Handler struct {
	analyzer *analysis.Analyzer
	log      zerolog.Logger
}

// AnalyzeRequest is the wire shape of an analysis request. Games arrive in
// whatever shape the upload layer produced; normalization makes them strict.
type AnalyzeRequest struct {
	Games   []game.Raw       `json:"games"`
	Options analysis.Options `json:"options"`
}

// NewRouter creates the HTTP router over the analyzer.
func NewRouter(log zerolog.Logger, analyzer *analysis.Analyzer) http.Handler {
	h := &Handler{analyzer: analyzer, log: log}

	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(h.health))
	mux.Handle("/readyz", http.HandlerFunc(h.health))
	mux.Handle("/v1/analyze", http.HandlerFunc(h.analyze))
	mux.Handle("/v1/cache/stats", http.HandlerFunc(h.cacheStats))

	// pprof endpoints
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return CORS(RequestID(AccessLog(log, mux)))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if r.URL.Query().Get("force") == "1" || r.URL.Query().Get("force") == "true" {
		req.Options.Force = true
	}

	games, skipped := game.Normalize(req.Games)
	if skipped > 0 {
		h.log.Warn().
			Str("rid", GetRequestID(r.Context())).
			Int("skipped", skipped).
			Msg("dropped malformed game records")
	}

	resp, err := h.analyzer.Analyze(r.Context(), games, req.Options)
	if err != nil {
		if err == analysis.ErrNoGames {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("rid", GetRequestID(r.Context())).Msg("analyze failed")
		writeError(w, http.StatusInternalServerError, "analysis failed: "+err.Error())
		return
	}
	writeJSON(w, resp)
}

func (h *Handler) cacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.analyzer.Metrics())
}
