// Package handlers provides HTTP handlers for the risk engine.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/sentinel-risk/internal/domain"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/market_regime"
	"github.com/aristath/sentinel-risk/internal/modules/blackswan"
	"github.com/aristath/sentinel-risk/internal/modules/concentration"
	"github.com/aristath/sentinel-risk/internal/modules/correlation"
	"github.com/aristath/sentinel-risk/internal/modules/factors"
	"github.com/aristath/sentinel-risk/internal/modules/montecarlo"
	"github.com/aristath/sentinel-risk/internal/modules/portfolio"
	"github.com/aristath/sentinel-risk/internal/modules/positions"
	"github.com/aristath/sentinel-risk/internal/modules/reporting"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// Services are the engine components served over HTTP
type Services struct {
	Bus           *events.Bus
	Store         *positions.Store
	Factors       *factors.Model
	Concentration *concentration.Detector
	Correlation   *correlation.Engine
	Stress        *stress.Engine
	MonteCarlo    *montecarlo.Simulator
	Regime        *market_regime.Predictor
	BlackSwan     *blackswan.Analyzer
	Reports       *reporting.Service
}

// Config holds request defaults and the simulation rate limit
type Config struct {
	SimulateRPS   float64
	SimulateBurst int
	Paths         int
	HorizonDays   int
	Confidence    float64
}

// Handler handles risk HTTP requests
type Handler struct {
	svc     Services
	cfg     Config
	limiter *rate.Limiter
	now     func() time.Time
	log     zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(svc Services, cfg Config, log zerolog.Logger) *Handler {
	if cfg.SimulateRPS <= 0 {
		cfg.SimulateRPS = 1
	}
	if cfg.SimulateBurst <= 0 {
		cfg.SimulateBurst = 1
	}
	if cfg.Paths <= 0 {
		cfg.Paths = 1000
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = montecarlo.DefaultHorizonDays
	}
	if !(cfg.Confidence > 0 && cfg.Confidence < 1) {
		cfg.Confidence = montecarlo.DefaultConfidence
	}
	return &Handler{
		svc:     svc,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.SimulateRPS), cfg.SimulateBurst),
		now:     time.Now,
		log:     log.With().Str("handler", "risk").Logger(),
	}
}

// HandleListPositions handles GET /api/positions
func (h *Handler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Store.All())
}

// HandleUpsertPosition handles PUT /api/positions/{id}
func (h *Handler) HandleUpsertPosition(w http.ResponseWriter, r *http.Request) {
	var p domain.Position
	if !h.decode(w, r, &p) {
		return
	}
	p.ID = chi.URLParam(r, "id")
	if class, err := domain.ParseAssetClass(string(p.AssetClass)); err == nil {
		p.AssetClass = class
	}

	stored, err := h.svc.Store.Upsert(p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

// HandleRemovePosition handles DELETE /api/positions/{id}
func (h *Handler) HandleRemovePosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Store.Remove(id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

// HandleGetSummary handles GET /api/risk/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, portfolio.Summarize(h.svc.Store.All()))
}

// HandleGetFactors handles GET /api/risk/factors. Each call records the
// exposures in the factor history.
func (h *Handler) HandleGetFactors(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Store.Snapshot()
	h.writeJSON(w, http.StatusOK, h.svc.Factors.Compute(snap, portfolio.Summarize(snap.Positions)))
}

// HandleGetConcentration handles GET /api/risk/concentration
func (h *Handler) HandleGetConcentration(w http.ResponseWriter, r *http.Request) {
	ps := h.svc.Store.All()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"risks":      h.svc.Concentration.Detect(ps, portfolio.Summarize(ps)),
		"thresholds": h.svc.Concentration.Thresholds(),
	})
}

// HandleGetCorrelation handles GET /api/risk/correlation
func (h *Handler) HandleGetCorrelation(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Correlation.Build(h.svc.Store.All()))
}

// HandleGetStressTests handles GET /api/risk/stress
func (h *Handler) HandleGetStressTests(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Stress.RunAll(h.svc.Store.All()))
}

// HandleGetStressTest handles GET /api/risk/stress/{scenario}
func (h *Handler) HandleGetStressTest(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Stress.Run(chi.URLParam(r, "scenario"), h.svc.Store.All())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// HandleListScenarios handles GET /api/risk/stress/scenarios
func (h *Handler) HandleListScenarios(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Stress.Scenarios())
}

// HandleAddScenario handles POST /api/risk/stress/scenarios
func (h *Handler) HandleAddScenario(w http.ResponseWriter, r *http.Request) {
	var s stress.Scenario
	if !h.decode(w, r, &s) {
		return
	}
	if err := h.svc.Stress.AddScenario(s); err != nil {
		h.writeError(w, err)
		return
	}
	added, err := h.svc.Stress.Scenario(s.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, added)
}

// HandleGetRegime handles GET /api/risk/regime
func (h *Handler) HandleGetRegime(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Regime.Predict())
}

// HandleObserveSignals handles POST /api/risk/regime/signals
func (h *Handler) HandleObserveSignals(w http.ResponseWriter, r *http.Request) {
	var s market_regime.Signals
	if !h.decode(w, r, &s) {
		return
	}
	h.writeJSON(w, http.StatusOK, h.svc.Regime.Observe(s))
}

// HandleSetRegime handles PUT /api/risk/regime/current
func (h *Handler) HandleSetRegime(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Regime string `json:"regime"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	regime, err := market_regime.ParseRegime(body.Regime)
	if err == nil {
		err = h.svc.Regime.SetCurrentRegime(regime)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.svc.Regime.Predict())
}

// HandleGetBlackSwan handles GET /api/risk/black-swan
func (h *Handler) HandleGetBlackSwan(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.BlackSwan.Analyze(portfolio.Summarize(h.svc.Store.All()), nil))
}

type simulateRequest struct {
	PortfolioValue  *float64           `json:"portfolio_value"`
	Composition     map[string]float64 `json:"composition"`
	HorizonDays     int                `json:"horizon_days"`
	PathCount       int                `json:"path_count"`
	ConfidenceLevel float64            `json:"confidence_level"`
}

// HandleSimulate handles POST /api/risk/simulate. Missing value and
// composition default to the live portfolio.
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var body simulateRequest
	if !h.decodeOptional(w, r, &body) {
		return
	}

	summary := portfolio.Summarize(h.svc.Store.All())
	req := montecarlo.Request{
		PortfolioValue:  summary.TotalValue,
		Composition:     summary.Composition(),
		HorizonDays:     orInt(body.HorizonDays, h.cfg.HorizonDays),
		PathCount:       orInt(body.PathCount, h.cfg.Paths),
		ConfidenceLevel: body.ConfidenceLevel,
	}
	if body.PortfolioValue != nil {
		req.PortfolioValue = *body.PortfolioValue
	}
	if len(body.Composition) > 0 {
		req.Composition = body.Composition
	}
	if req.ConfidenceLevel == 0 {
		req.ConfidenceLevel = h.cfg.Confidence
	}

	res, err := h.svc.MonteCarlo.Simulate(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	res.Paths = nil
	h.writeJSON(w, http.StatusOK, res)
}

// HandleSimulateStress handles POST /api/risk/simulate/stress/{scenario}
func (h *Handler) HandleSimulateStress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PathCount int `json:"path_count"`
	}
	if !h.decodeOptional(w, r, &body) {
		return
	}

	scenario, err := h.svc.Stress.Scenario(chi.URLParam(r, "scenario"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	summary := portfolio.Summarize(h.svc.Store.All())
	res, err := h.svc.MonteCarlo.RunStressTest(r.Context(), summary.TotalValue, summary.Composition(),
		scenario, orInt(body.PathCount, h.cfg.Paths))
	if err != nil {
		h.writeError(w, err)
		return
	}
	res.Paths = nil
	h.writeJSON(w, http.StatusOK, res)
}

// HandleGenerateReport handles POST /api/risk/reports
func (h *Handler) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reports.Generate(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, report)
}

// HandleLatestReport handles GET /api/risk/reports/latest
func (h *Handler) HandleLatestReport(w http.ResponseWriter, r *http.Request) {
	report, ok := h.svc.Reports.Latest()
	if !ok {
		http.Error(w, "No report generated yet", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// HandleReportHistory handles GET /api/risk/reports/history?limit=N
func (h *Handler) HandleReportHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.svc.Reports.History(limit))
}

// HandleReportTrend handles GET /api/risk/reports/trend?limit=N
func (h *Handler) HandleReportTrend(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.svc.Reports.Trend(limit))
}

// HandleExportReports handles GET /api/risk/reports/export (msgpack)
func (h *Handler) HandleExportReports(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Reports.Export()
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/msgpack")
	w.Header().Set("Content-Disposition", `attachment; filename="risk-reports.msgpack"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to write report export")
	}
}

// rateLimited rejects requests beyond the simulation token bucket
func (h *Handler) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			h.log.Warn().Str("path", r.URL.Path).Msg("Simulation rate limit exceeded")
			http.Error(w, "Too many simulation requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptional accepts an empty body
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	return h.decode(w, r, v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, positions.ErrPositionNotFound), errors.Is(err, stress.ErrScenarioNotFound):
		status = http.StatusNotFound
	case errors.Is(err, positions.ErrInvalidPosition),
		errors.Is(err, stress.ErrInvalidScenario),
		errors.Is(err, montecarlo.ErrInvalidSimulation),
		errors.Is(err, market_regime.ErrUnknownRegime):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	}
	http.Error(w, err.Error(), status)
}

// writeJSON writes data inside the standard response envelope
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": h.now().Format(time.RFC3339),
		},
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func orInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
