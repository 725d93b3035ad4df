package models

import (
	"fmt"
	"time"
)

const (
	// DefaultReaderTimezone applies when onboarding omits a timezone.
	DefaultReaderTimezone = "America/New_York"
	// DefaultActorTimezone applies when a booking request omits a timezone.
	DefaultActorTimezone = "UTC"
)

// Timezone is a validated IANA zone name.
type Timezone struct {
	name string
	loc  *time.Location
}

// ParseTimezone validates name as an IANA zone. An empty name resolves to fallback.
// The process-local zone is rejected.
func ParseTimezone(name, fallback string) (Timezone, error) {
	if name == "" {
		name = fallback
	}
	if name == "" || name == "Local" {
		return Timezone{}, fmt.Errorf("invalid timezone %q", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Timezone{}, fmt.Errorf("invalid timezone %q", name)
	}
	return Timezone{name: name, loc: loc}, nil
}

// MustTimezone is ParseTimezone for names known to be valid.
func MustTimezone(name string) Timezone {
	tz, err := ParseTimezone(name, "")
	if err != nil {
		panic(err)
	}
	return tz
}

func (tz Timezone) String() string { return tz.name }

// Location returns the zone's location, UTC for the zero value.
func (tz Timezone) Location() *time.Location {
	if tz.loc == nil {
		return time.UTC
	}
	return tz.loc
}
