package carpark

import (
	"fmt"
	"regexp"
	"time"
)

const (
	MinYear = 2004
	MaxYear = 2024
)

var (
	spotIDPattern       = regexp.MustCompile(`^[A-Z][0-9]{3}$`)
	registrationPattern = regexp.MustCompile(`^[A-Z][0-9]{4}$`)
)

func IsValidSpotID(spotID string) bool {
	return spotIDPattern.MatchString(spotID)
}

func IsValidRegistration(registrationNumber string) bool {
	return registrationPattern.MatchString(registrationNumber)
}

func IsValidYear(year int) bool {
	return year >= MinYear && year <= MaxYear
}

// FormatDuration renders d as hours:minutes, e.g. 1:05. Negative durations render as 0:00.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%d:%02d", hours, minutes)
}
