package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/sentinel-risk/internal/scheduler"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "sentinel-risk",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleSystemStatus handles GET /api/system/status
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := s.getSystemStats()

	status := map[string]interface{}{
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"positions":      s.container.PositionStore.Len(),
		"subscribers":    s.container.Bus.SubscriberCount(),
		"goroutines":     runtime.NumGoroutine(),
		"cpu_percent":    cpuPercent,
		"ram_percent":    ramPercent,
	}
	status["regime"], status["regime_confidence"] = s.container.Regime.CurrentRegime()
	if report, ok := s.container.Reports.Latest(); ok {
		status["last_report_id"] = report.ID
		status["last_report_at"] = report.GeneratedAt.Format(time.RFC3339)
		status["risk_score"] = report.RiskScore
	}
	if s.container.Scheduler != nil {
		status["scheduled_jobs"] = s.container.Scheduler.Len()
	}

	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

// handleTriggerJob handles POST /api/jobs/{name}
func (s *Server) handleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var job scheduler.Job
	if s.jobs != nil {
		switch name {
		case s.jobs.GenerateReport.Name():
			job = s.jobs.GenerateReport
		case s.jobs.RegimePrediction.Name():
			job = s.jobs.RegimePrediction
		}
	}
	if job == nil {
		http.Error(w, "Unknown job: "+name, http.StatusNotFound)
		return
	}

	if err := s.container.Scheduler.RunNow(job); err != nil {
		s.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "completed",
		"job":    name,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
