package carpark

import (
	"testing"
	"time"
)

func TestNewSpot(t *testing.T) {
	spot := NewSpot("A123")

	if spot.ID != "A123" {
		t.Errorf("Expected spot ID %s, got %s", "A123", spot.ID)
	}

	if spot.IsOccupied() {
		t.Error("Expected new spot to be unoccupied")
	}

	if spot.Vehicle != nil {
		t.Error("Expected new spot to have no vehicle")
	}
}

func TestSpotPark(t *testing.T) {
	spot := NewSpot("A123")
	vehicle := NewVehicle("A1234", "Toyota", "Corolla", 2015)
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	spot.Park(vehicle, at)

	if !spot.IsOccupied() {
		t.Error("Expected spot to be occupied after parking")
	}
	if spot.Vehicle != vehicle {
		t.Error("Expected spot to contain the parked vehicle")
	}
	if !spot.OccupiedSince.Equal(at) {
		t.Errorf("Expected OccupiedSince %v, got %v", at, spot.OccupiedSince)
	}
	if !vehicle.ParkedAt.Equal(at) {
		t.Errorf("Expected vehicle ParkedAt %v, got %v", at, vehicle.ParkedAt)
	}
}

func TestSpotLeave(t *testing.T) {
	spot := NewSpot("A123")
	vehicle := NewVehicle("A1234", "Toyota", "Corolla", 2015)

	spot.Park(vehicle, time.Now())
	leavingVehicle := spot.Leave()

	if spot.IsOccupied() {
		t.Error("Expected spot to be unoccupied after leaving")
	}
	if !spot.OccupiedSince.IsZero() {
		t.Error("Expected OccupiedSince to be cleared after leaving")
	}
	if leavingVehicle != vehicle {
		t.Error("Expected leaving vehicle to be the same as parked vehicle")
	}
}

func TestSpotInfoOccupiedFor(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	spot := NewSpot("A123")

	if d := spot.info().OccupiedFor(at.Add(time.Hour)); d != 0 {
		t.Errorf("Expected zero duration for unoccupied spot, got %v", d)
	}

	spot.Park(NewVehicle("A1234", "Toyota", "Corolla", 2015), at)
	info := spot.info()

	if d := info.OccupiedFor(at.Add(90 * time.Minute)); d != 90*time.Minute {
		t.Errorf("Expected 1h30m, got %v", d)
	}
	if info.Vehicle == spot.Vehicle {
		t.Error("Expected info to carry a copy of the vehicle")
	}
}
