package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"car-park/internal/carpark"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type AddSpotRequest struct {
	SpotID string `json:"spot_id"`
}

type ParkCarRequest struct {
	Registration string `json:"registration"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	CreateSpot   bool   `json:"create_spot"`
}

type ResetRequest struct {
	Confirm bool `json:"confirm"`
}

type VehicleResponse struct {
	Registration string    `json:"registration"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	ParkedAt     time.Time `json:"parked_at"`
}

type SpotResponse struct {
	SpotID        string           `json:"spot_id"`
	Occupied      bool             `json:"occupied"`
	Vehicle       *VehicleResponse `json:"vehicle,omitempty"`
	OccupiedSince *time.Time       `json:"occupied_since,omitempty"`
	OccupiedFor   string           `json:"occupied_for,omitempty"`
}

type SpotListResponse struct {
	Total     int            `json:"total"`
	Occupied  int            `json:"occupied"`
	Available int            `json:"available"`
	Spots     []SpotResponse `json:"spots"`
}

type ParkCarResponse struct {
	SpotID       string `json:"spot_id"`
	Registration string `json:"registration"`
	SpotCreated  bool   `json:"spot_created"`
}

type RemoveCarResponse struct {
	SpotID  string          `json:"spot_id"`
	Vehicle VehicleResponse `json:"vehicle"`
}

type ResetResponse struct {
	SpotsRemoved int `json:"spots_removed"`
	CarsRemoved  int `json:"cars_removed"`
}

func newSpotResponse(spot carpark.SpotInfo, now time.Time) SpotResponse {
	resp := SpotResponse{SpotID: spot.ID, Occupied: spot.Occupied}
	if !spot.Occupied {
		return resp
	}

	vehicle := newVehicleResponse(spot.Vehicle)
	since := spot.OccupiedSince
	resp.Vehicle = &vehicle
	resp.OccupiedSince = &since
	resp.OccupiedFor = carpark.FormatDuration(spot.OccupiedFor(now))
	return resp
}

func newSpotResponses(spots []carpark.SpotInfo, now time.Time) []SpotResponse {
	out := make([]SpotResponse, 0, len(spots))
	for _, spot := range spots {
		out = append(out, newSpotResponse(spot, now))
	}
	return out
}

func newVehicleResponse(v *carpark.Vehicle) VehicleResponse {
	return VehicleResponse{
		Registration: v.RegistrationNumber,
		Make:         v.Make,
		Model:        v.Model,
		Year:         v.Year,
		ParkedAt:     v.ParkedAt,
	}
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
