// Package events carries car park state changes to interested consumers.
package events

import "time"

type Type string

const (
	SpotAdded   Type = "spot.added"
	SpotDeleted Type = "spot.deleted"
	CarParked   Type = "car.parked"
	CarRemoved  Type = "car.removed"
	Reset       Type = "carpark.reset"
)

// Event is published after a car park mutation has been committed.
type Event struct {
	Type         Type      `json:"type"`
	SpotID       string    `json:"spot_id,omitempty"`
	Registration string    `json:"registration,omitempty"`
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	Year         int       `json:"year,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
