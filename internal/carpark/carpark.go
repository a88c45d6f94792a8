package carpark

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/text/cases"
)

// CarPark is the registry of parking spots. Spots are indexed by ID and by
// the registration number of the car they hold, while order keeps the
// insertion order used for listing. Every method runs under a single lock so
// lookups, checks and mutations happen as one step.
type CarPark struct {
	mu             sync.RWMutex
	order          []string
	spots          map[string]*Spot
	byRegistration map[string]string
	now            func() time.Time
}

type Option func(*CarPark)

// WithClock overrides the time source used to stamp parked cars.
func WithClock(now func() time.Time) Option {
	return func(cp *CarPark) {
		cp.now = now
	}
}

type Stats struct {
	Total     int
	Occupied  int
	Available int
}

func NewCarPark(opts ...Option) *CarPark {
	cp := &CarPark{
		spots:          make(map[string]*Spot),
		byRegistration: make(map[string]string),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(cp)
	}
	return cp
}

func (cp *CarPark) AddSpot(spotID string) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	return cp.addSpotLocked(spotID)
}

func (cp *CarPark) addSpotLocked(spotID string) error {
	if !IsValidSpotID(spotID) {
		return fmt.Errorf("spot %q: %w", spotID, ErrInvalidSpotID)
	}
	if _, ok := cp.spots[spotID]; ok {
		return fmt.Errorf("spot %s: %w", spotID, ErrDuplicateID)
	}

	cp.spots[spotID] = NewSpot(spotID)
	cp.order = append(cp.order, spotID)
	return nil
}

func (cp *CarPark) DeleteSpot(spotID string) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	spot, ok := cp.spots[spotID]
	if !ok {
		return fmt.Errorf("spot %s: %w", spotID, ErrNotFound)
	}
	if spot.IsOccupied() {
		return fmt.Errorf("spot %s: %w", spotID, ErrSpotOccupied)
	}

	delete(cp.spots, spotID)
	if i := slices.Index(cp.order, spotID); i >= 0 {
		cp.order = slices.Delete(cp.order, i, i+1)
	}
	return nil
}

func (cp *CarPark) FindSpot(spotID string) (SpotInfo, error) {
	cp.mu.RLock()
	defer cp.mu.RUnlock()

	spot, ok := cp.spots[spotID]
	if !ok {
		return SpotInfo{}, fmt.Errorf("spot %s: %w", spotID, ErrNotFound)
	}
	return spot.info(), nil
}

// ListSpots returns every spot in the order it was added.
func (cp *CarPark) ListSpots() []SpotInfo {
	cp.mu.RLock()
	defer cp.mu.RUnlock()

	spots := make([]SpotInfo, 0, len(cp.order))
	for _, id := range cp.order {
		spots = append(spots, cp.spots[id].info())
	}
	return spots
}

// ParkCar attaches vehicle to an existing, unoccupied spot. The registry keeps
// its own copy of the vehicle. A registration number can be parked in only one
// spot at a time.
func (cp *CarPark) ParkCar(vehicle *Vehicle, spotID string) error {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	return cp.parkLocked(vehicle, spotID)
}

// AddSpotAndPark parks vehicle in spotID, creating the spot first when it does
// not exist yet. It reports whether the spot was created. Nothing changes
// when parking fails.
func (cp *CarPark) AddSpotAndPark(vehicle *Vehicle, spotID string) (bool, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if !IsValidSpotID(spotID) {
		return false, fmt.Errorf("spot %q: %w", spotID, ErrInvalidSpotID)
	}
	if _, ok := cp.spots[spotID]; ok {
		return false, cp.parkLocked(vehicle, spotID)
	}
	if err := cp.checkVehicleLocked(vehicle); err != nil {
		return false, err
	}
	if err := cp.addSpotLocked(spotID); err != nil {
		return false, err
	}
	if err := cp.parkLocked(vehicle, spotID); err != nil {
		delete(cp.spots, spotID)
		cp.order = cp.order[:len(cp.order)-1]
		return false, err
	}
	return true, nil
}

func (cp *CarPark) checkVehicleLocked(vehicle *Vehicle) error {
	if vehicle == nil {
		return fmt.Errorf("vehicle is required: %w", ErrInvalidFormat)
	}
	if holder, ok := cp.byRegistration[vehicle.RegistrationNumber]; ok {
		return fmt.Errorf("registration %s in spot %s: %w", vehicle.RegistrationNumber, holder, ErrDuplicateRegistration)
	}
	return nil
}

func (cp *CarPark) parkLocked(vehicle *Vehicle, spotID string) error {
	if !IsValidSpotID(spotID) {
		return fmt.Errorf("spot %q: %w", spotID, ErrInvalidSpotID)
	}
	spot, ok := cp.spots[spotID]
	if !ok {
		return fmt.Errorf("spot %s: %w", spotID, ErrNotFound)
	}
	if spot.IsOccupied() {
		return fmt.Errorf("spot %s: %w", spotID, ErrSpotOccupied)
	}
	if err := cp.checkVehicleLocked(vehicle); err != nil {
		return err
	}

	spot.Park(vehicle.clone(), cp.now())
	cp.byRegistration[vehicle.RegistrationNumber] = spotID
	return nil
}

// RemoveCarByRegistration detaches the car with the given registration number
// and returns the spot it was removed from along with the removed vehicle.
func (cp *CarPark) RemoveCarByRegistration(registrationNumber string) (string, *Vehicle, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	spotID, ok := cp.byRegistration[registrationNumber]
	if !ok {
		return "", nil, fmt.Errorf("registration %s: %w", registrationNumber, ErrNotFound)
	}

	vehicle := cp.spots[spotID].Leave()
	delete(cp.byRegistration, registrationNumber)
	return spotID, vehicle, nil
}

// FindByRegistration is an exact, case-sensitive lookup. Callers normalise case.
func (cp *CarPark) FindByRegistration(registrationNumber string) (SpotInfo, error) {
	cp.mu.RLock()
	defer cp.mu.RUnlock()

	spotID, ok := cp.byRegistration[registrationNumber]
	if !ok {
		return SpotInfo{}, fmt.Errorf("registration %s: %w", registrationNumber, ErrNotFound)
	}
	return cp.spots[spotID].info(), nil
}

// FindByMake returns occupied spots whose car make matches case-insensitively,
// in insertion order. No match yields an empty slice.
func (cp *CarPark) FindByMake(vehicleMake string) []SpotInfo {
	fold := cases.Fold()
	want := fold.String(vehicleMake)

	cp.mu.RLock()
	defer cp.mu.RUnlock()

	matches := []SpotInfo{}
	for _, id := range cp.order {
		spot := cp.spots[id]
		if spot.IsOccupied() && fold.String(spot.Vehicle.Make) == want {
			matches = append(matches, spot.info())
		}
	}
	return matches
}

// Reset discards every spot and every parked car and reports what was discarded.
func (cp *CarPark) Reset() Stats {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	discarded := Stats{
		Total:     len(cp.order),
		Occupied:  len(cp.byRegistration),
		Available: len(cp.order) - len(cp.byRegistration),
	}
	cp.order = nil
	cp.spots = make(map[string]*Spot)
	cp.byRegistration = make(map[string]string)
	return discarded
}

func (cp *CarPark) Stats() Stats {
	cp.mu.RLock()
	defer cp.mu.RUnlock()

	occupied := len(cp.byRegistration)
	return Stats{
		Total:     len(cp.order),
		Occupied:  occupied,
		Available: len(cp.order) - occupied,
	}
}

func (cp *CarPark) Now() time.Time {
	return cp.now()
}
