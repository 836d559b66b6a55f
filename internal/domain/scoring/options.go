package scoring

import "time"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithScoreTable replaces the rank to score table. Invalid tables are ignored.
func WithScoreTable(table []int) Option {
	return func(e *Engine) {
		if ScoreTable(table).Validate() == nil {
			e.table = append(ScoreTable(nil), table...)
		}
	}
}

// WithLocation sets the zone result timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}
