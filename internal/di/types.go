// Package di wires the risk engine services into a single container.
package di

import (
	"github.com/aristath/sentinel-risk/internal/config"
	"github.com/aristath/sentinel-risk/internal/events"
	"github.com/aristath/sentinel-risk/internal/market_regime"
	"github.com/aristath/sentinel-risk/internal/metrics"
	"github.com/aristath/sentinel-risk/internal/modules/blackswan"
	"github.com/aristath/sentinel-risk/internal/modules/concentration"
	"github.com/aristath/sentinel-risk/internal/modules/correlation"
	"github.com/aristath/sentinel-risk/internal/modules/factors"
	"github.com/aristath/sentinel-risk/internal/modules/montecarlo"
	"github.com/aristath/sentinel-risk/internal/modules/positions"
	"github.com/aristath/sentinel-risk/internal/modules/reporting"
	"github.com/aristath/sentinel-risk/internal/modules/stress"
	"github.com/aristath/sentinel-risk/internal/scheduler"
)

// Container holds every service instance. It is created by Wire and passed
// to handlers and binaries.
type Container struct {
	Config  *config.Config
	Bus     *events.Bus
	Metrics *metrics.Registry

	PositionStore *positions.Store
	Factors       *factors.Model
	Concentration *concentration.Detector
	Correlation   *correlation.Engine
	Stress        *stress.Engine
	MonteCarlo    *montecarlo.Simulator
	Regime        *market_regime.Predictor
	BlackSwan     *blackswan.Analyzer
	Reports       *reporting.Service

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	GenerateReport   *scheduler.GenerateReportJob
	RegimePrediction *scheduler.RegimePredictionJob
}

// Close releases container resources
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		c.Bus.Close()
	}
}
