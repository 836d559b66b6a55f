package model

import "time"

// Action tags reported with every telemetry point.
const (
	ActionRegister = "register"
	ActionSubmit   = "submit"
	ActionQuiz     = "quiz"
)

// Metric is a single telemetry point handed to the delivery pipeline.
type Metric struct {
	Name      string
	Value     float64
	Tags      []string // "key:value" pairs
	Timestamp time.Time
}
