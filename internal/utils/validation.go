package utils

import (
	"errors"
	"math"
	"regexp"
)

var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// MaxDistanceKm is half the Earth's circumference; anything further wraps around.
const MaxDistanceKm = 20015.0

// ValidateID validates that an ID is safe and within reasonable limits
func ValidateID(id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	if len(id) > 100 {
		return errors.New("id too long (max 100 characters)")
	}

	if !validIDPattern.MatchString(id) {
		return errors.New("id contains invalid characters")
	}

	return nil
}

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if math.IsNaN(lat) || lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if math.IsNaN(lon) || lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ValidateHeading accepts any finite heading; callers normalize it.
func ValidateHeading(heading float64) error {
	if math.IsNaN(heading) || math.IsInf(heading, 0) {
		return errors.New("heading must be a finite number of degrees")
	}
	return nil
}

// ValidateDistance validates a projection or search distance in kilometers.
func ValidateDistance(km float64) error {
	if math.IsNaN(km) || km <= 0 {
		return errors.New("distance must be positive")
	}
	if km > MaxDistanceKm {
		return errors.New("distance too large (max 20015 km)")
	}
	return nil
}

// ValidateAccuracy checks an optional accuracy value.
func ValidateAccuracy(accuracy *float64) error {
	if accuracy != nil && (math.IsNaN(*accuracy) || *accuracy < 0) {
		return errors.New("accuracy must be non-negative")
	}
	return nil
}

// ValidateCoordinateParams validates a latitude/longitude pair.
func ValidateCoordinateParams(lat, lon float64) map[string][]string {
	fieldErrors := make(map[string][]string)

	if err := ValidateLatitude(lat); err != nil {
		fieldErrors["lat"] = append(fieldErrors["lat"], err.Error())
	}

	if err := ValidateLongitude(lon); err != nil {
		fieldErrors["lon"] = append(fieldErrors["lon"], err.Error())
	}

	return fieldErrors
}
