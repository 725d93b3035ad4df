package models

import "time"

const MinutesPerDay = 24 * 60

// AvailabilitySlot is one recurring weekly window of a reader.
type AvailabilitySlot struct {
	ID        string `json:"id,omitempty"`
	ReaderID  string `json:"readerId,omitempty"`
	DayOfWeek int    `json:"dayOfWeek"` // 0 = Sunday
	StartMin  int    `json:"startMin"`  // minutes from local midnight
	EndMin    int    `json:"endMin"`    // exclusive, at most 1440
}

// Contains reports whether [startMin, startMin+dur) fits in the window on the given weekday.
func (a AvailabilitySlot) Contains(day time.Weekday, startMin, dur int) bool {
	return a.DayOfWeek == int(day) && startMin >= a.StartMin && startMin+dur <= a.EndMin
}

// AvailabilityInput is one window in a save request.
type AvailabilityInput struct {
	DayOfWeek *int `json:"dayOfWeek" binding:"required"`
	StartMin  *int `json:"startMin" binding:"required"`
	EndMin    *int `json:"endMin" binding:"required"`
}

// SaveAvailabilityRequest replaces a reader's weekly template.
type SaveAvailabilityRequest struct {
	Slots []AvailabilityInput `json:"slots" binding:"max=200,dive"`
}

// Slot is a concrete bookable interval on a specific date.
type Slot struct {
	StartMin  int       `json:"startMin"`
	EndMin    int       `json:"endMin"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// AvailableDay marks a date with at least one open slot.
type AvailableDay struct {
	Date      string `json:"date"`
	SlotCount int    `json:"slotCount"`
}

// SlotQuery selects the slots of one reader on one date.
type SlotQuery struct {
	ReaderID    string `form:"readerId" binding:"required,uuid"`
	Date        string `form:"date" binding:"required,datetime=2006-01-02"`
	DurationMin int    `form:"duration" binding:"required"`
}

// DaysQuery selects the bookable dates of one reader.
type DaysQuery struct {
	ReaderID    string `form:"readerId" binding:"required,uuid"`
	DurationMin int    `form:"duration" binding:"required"`
}
