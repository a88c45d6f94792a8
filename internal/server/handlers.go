package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"car-park/internal/carpark"
)

type Handler struct {
	carPark     *carpark.InstrumentedCarPark
	serviceName string
}

func NewHandler(carPark *carpark.InstrumentedCarPark, serviceName string) *Handler {
	return &Handler{carPark: carPark, serviceName: serviceName}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) AddSpot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req AddSpotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	spotID := strings.ToUpper(strings.TrimSpace(req.SpotID))
	if err := h.carPark.AddSpot(ctx, spotID); err != nil {
		writeCarParkError(w, r, err)
		return
	}

	spot, err := h.carPark.FindSpot(ctx, spotID)
	if err != nil {
		writeCarParkError(w, r, err)
		return
	}
	WriteSuccess(ctx, w, http.StatusCreated, "Parking spot added successfully",
		newSpotResponse(spot, h.carPark.Now()))
}

func (h *Handler) ListSpots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spots := h.carPark.ListSpots(ctx)

	resp := SpotListResponse{
		Total: len(spots),
		Spots: newSpotResponses(spots, h.carPark.Now()),
	}
	for _, spot := range spots {
		if spot.Occupied {
			resp.Occupied++
		}
	}
	resp.Available = resp.Total - resp.Occupied

	WriteSuccess(ctx, w, http.StatusOK, "Parking spots retrieved successfully", resp)
}

func (h *Handler) GetSpot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spot, err := h.carPark.FindSpot(ctx, spotIDParam(r))
	if err != nil {
		writeCarParkError(w, r, err)
		return
	}
	WriteSuccess(ctx, w, http.StatusOK, "Parking spot found", newSpotResponse(spot, h.carPark.Now()))
}

func (h *Handler) DeleteSpot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spotID := spotIDParam(r)
	if err := h.carPark.DeleteSpot(ctx, spotID); err != nil {
		writeCarParkError(w, r, err)
		return
	}
	WriteSuccess(ctx, w, http.StatusOK, "Parking spot deleted successfully", map[string]any{
		"spot_id": spotID,
	})
}

func (h *Handler) ParkCar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ParkCarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	registration := strings.ToUpper(strings.TrimSpace(req.Registration))
	if !carpark.IsValidRegistration(registration) {
		WriteError(ctx, w, http.StatusBadRequest,
			"Invalid registration number. Expected an uppercase letter followed by 4 digits")
		return
	}
	if strings.TrimSpace(req.Make) == "" || strings.TrimSpace(req.Model) == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Make and model are required")
		return
	}
	if !carpark.IsValidYear(req.Year) {
		WriteError(ctx, w, http.StatusBadRequest,
			fmt.Sprintf("Invalid year. Expected a year between %d and %d", carpark.MinYear, carpark.MaxYear))
		return
	}

	spotID := spotIDParam(r)
	vehicle := carpark.NewVehicle(registration, strings.TrimSpace(req.Make), strings.TrimSpace(req.Model), req.Year)

	created := false
	var err error
	if req.CreateSpot {
		created, err = h.carPark.AddSpotAndPark(ctx, vehicle, spotID)
	} else {
		err = h.carPark.ParkCar(ctx, vehicle, spotID)
	}
	if err != nil {
		writeCarParkError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteSuccess(ctx, w, status, "Car parked successfully", ParkCarResponse{
		SpotID:       spotID,
		Registration: registration,
		SpotCreated:  created,
	})
}

func (h *Handler) FindCarsByMake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vehicleMake := strings.TrimSpace(r.URL.Query().Get("make"))
	if vehicleMake == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Query parameter make is required")
		return
	}

	spots := h.carPark.FindByMake(ctx, vehicleMake)
	WriteSuccess(ctx, w, http.StatusOK, fmt.Sprintf("Found %d cars", len(spots)),
		newSpotResponses(spots, h.carPark.Now()))
}

func (h *Handler) FindCar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spot, err := h.carPark.FindByRegistration(ctx, registrationParam(r))
	if err != nil {
		writeCarParkError(w, r, err)
		return
	}
	WriteSuccess(ctx, w, http.StatusOK, "Car found", newSpotResponse(spot, h.carPark.Now()))
}

func (h *Handler) RemoveCar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spotID, vehicle, err := h.carPark.RemoveCarByRegistration(ctx, registrationParam(r))
	if err != nil {
		writeCarParkError(w, r, err)
		return
	}
	WriteSuccess(ctx, w, http.StatusOK, "Car removed successfully", RemoveCarResponse{
		SpotID:  spotID,
		Vehicle: newVehicleResponse(vehicle),
	})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Confirm {
		WriteError(ctx, w, http.StatusBadRequest, "Reset removes every spot and car. Set confirm to true")
		return
	}

	discarded := h.carPark.Reset(ctx)
	WriteSuccess(ctx, w, http.StatusOK, "Car park reset", ResetResponse{
		SpotsRemoved: discarded.Total,
		CarsRemoved:  discarded.Occupied,
	})
}

func spotIDParam(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "spotID"))
}

func registrationParam(r *http.Request) string {
	return strings.ToUpper(chi.URLParam(r, "registration"))
}

func writeCarParkError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, carpark.ErrInvalidSpotID):
		WriteError(ctx, w, http.StatusBadRequest,
			"Invalid spot ID format. Expected an uppercase letter followed by 3 digits")
	case errors.Is(err, carpark.ErrInvalidFormat):
		WriteError(ctx, w, http.StatusBadRequest, "Invalid input: "+err.Error())
	case errors.Is(err, carpark.ErrNotFound):
		WriteError(ctx, w, http.StatusNotFound, "Not found")
	case errors.Is(err, carpark.ErrDuplicateID):
		WriteError(ctx, w, http.StatusConflict, "Parking spot already exists")
	case errors.Is(err, carpark.ErrSpotOccupied):
		WriteError(ctx, w, http.StatusConflict, "Parking spot is occupied")
	case errors.Is(err, carpark.ErrDuplicateRegistration):
		WriteError(ctx, w, http.StatusConflict, "A car with this registration number is already parked")
	default:
		WriteError(ctx, w, http.StatusInternalServerError, "Internal server error")
	}
}
