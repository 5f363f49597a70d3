// Package events provides the in-process notification channel used by the risk
// services to announce position changes, regime changes and completed reports.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	PositionUpdated     EventType = "POSITION_UPDATED"
	PositionRemoved     EventType = "POSITION_REMOVED"
	ReportGenerated     EventType = "REPORT_GENERATED"
	RegimeChanged       EventType = "REGIME_CHANGED"
	SimulationCompleted EventType = "SIMULATION_COMPLETED"
)

// Event represents a system event with typed data
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
	Type      EventType `json:"type"`
	Module    string    `json:"module"`
}

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// PositionUpdatedData contains data for PositionUpdated events
type PositionUpdatedData struct {
	PositionID  string  `json:"position_id"`
	Symbol      string  `json:"symbol"`
	MarketValue float64 `json:"market_value"`
}

// EventType returns the event type for PositionUpdatedData
func (d *PositionUpdatedData) EventType() EventType {
	return PositionUpdated
}

// PositionRemovedData contains data for PositionRemoved events
type PositionRemovedData struct {
	PositionID string `json:"position_id"`
	Symbol     string `json:"symbol"`
}

// EventType returns the event type for PositionRemovedData
func (d *PositionRemovedData) EventType() EventType {
	return PositionRemoved
}

// ReportGeneratedData contains data for ReportGenerated events
type ReportGeneratedData struct {
	ReportID  string  `json:"report_id"`
	RiskLevel string  `json:"risk_level"`
	RiskScore float64 `json:"risk_score"`
	Alerts    int     `json:"alerts"`
}

// EventType returns the event type for ReportGeneratedData
func (d *ReportGeneratedData) EventType() EventType {
	return ReportGenerated
}

// RegimeChangedData contains data for RegimeChanged events
type RegimeChangedData struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Confidence float64 `json:"confidence"`
}

// EventType returns the event type for RegimeChangedData
func (d *RegimeChangedData) EventType() EventType {
	return RegimeChanged
}

// SimulationCompletedData contains data for SimulationCompleted events
type SimulationCompletedData struct {
	RunID      string  `json:"run_id"`
	Kind       string  `json:"kind"`
	Paths      int     `json:"paths"`
	DurationMs float64 `json:"duration_ms"`
}

// EventType returns the event type for SimulationCompletedData
func (d *SimulationCompletedData) EventType() EventType {
	return SimulationCompleted
}
