package carpark

import "time"

type Vehicle struct {
	RegistrationNumber string
	Make               string
	Model              string
	Year               int
	ParkedAt           time.Time
}

func NewVehicle(registrationNumber, vehicleMake, model string, year int) *Vehicle {
	return &Vehicle{
		RegistrationNumber: registrationNumber,
		Make:               vehicleMake,
		Model:              model,
		Year:               year,
		ParkedAt:           time.Now(),
	}
}

// SetParkedAt is the only mutation a vehicle allows after construction.
func (v *Vehicle) SetParkedAt(t time.Time) {
	v.ParkedAt = t
}

func (v *Vehicle) clone() *Vehicle {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
