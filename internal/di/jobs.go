package di

import (
	"fmt"

	"github.com/aristath/sentinel-risk/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the periodic jobs and registers them with the scheduler
func RegisterJobs(c *Container, log zerolog.Logger) (*JobInstances, error) {
	if c == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	c.Scheduler = scheduler.New(log)
	instances := &JobInstances{
		GenerateReport: scheduler.NewGenerateReportJob(scheduler.GenerateReportConfig{
			Log:       log,
			Generator: c.Reports,
		}),
		RegimePrediction: scheduler.NewRegimePredictionJob(scheduler.RegimePredictionConfig{
			Log:       log,
			Predictor: c.Regime,
		}),
	}

	if err := c.Scheduler.AddJob(c.Config.Schedule.Report, instances.GenerateReport); err != nil {
		return nil, fmt.Errorf("failed to register report job: %w", err)
	}
	if err := c.Scheduler.AddJob(c.Config.Schedule.Regime, instances.RegimePrediction); err != nil {
		return nil, fmt.Errorf("failed to register regime job: %w", err)
	}

	return instances, nil
}
