package carpark

import "time"

type Spot struct {
	ID            string
	Vehicle       *Vehicle
	OccupiedSince time.Time
}

// SpotInfo is a read-only copy of a spot handed out by CarPark queries.
type SpotInfo struct {
	ID            string
	Occupied      bool
	Vehicle       *Vehicle
	OccupiedSince time.Time
}

func NewSpot(id string) *Spot {
	return &Spot{
		ID:      id,
		Vehicle: nil,
	}
}

func (s *Spot) IsOccupied() bool {
	return s.Vehicle != nil
}

func (s *Spot) Park(vehicle *Vehicle, at time.Time) {
	vehicle.SetParkedAt(at)
	s.Vehicle = vehicle
	s.OccupiedSince = at
}

func (s *Spot) Leave() *Vehicle {
	vehicle := s.Vehicle
	s.Vehicle = nil
	s.OccupiedSince = time.Time{}
	return vehicle
}

func (s *Spot) info() SpotInfo {
	return SpotInfo{
		ID:            s.ID,
		Occupied:      s.IsOccupied(),
		Vehicle:       s.Vehicle.clone(),
		OccupiedSince: s.OccupiedSince,
	}
}

// OccupiedFor reports how long the spot has held its vehicle as of now.
// Unoccupied spots report zero.
func (si SpotInfo) OccupiedFor(now time.Time) time.Duration {
	if !si.Occupied || si.OccupiedSince.IsZero() {
		return 0
	}
	return now.Sub(si.OccupiedSince)
}
