package models

// Common constants used across the application
const (
	// UnknownLocation is the fallback name when the oracle gives no usable display name
	UnknownLocation = "Unknown location"
)
