package models

import "time"

// ExpirySource identifies where a shelf-life prediction came from
type ExpirySource string

const (
	// ExpirySourceRemote is a prediction returned by the API
	ExpirySourceRemote ExpirySource = "remote"
	// ExpirySourceFallback is a prediction from the local keyword table
	ExpirySourceFallback ExpirySource = "fallback"
)

// ExpiryPrediction is the number of days an item is expected to keep in the fridge
type ExpiryPrediction struct {
	ItemName string       `json:"item_name"`
	Days     int          `json:"days"`
	Source   ExpirySource `json:"source"`
}

// ExpiresOn returns the calendar day the item is expected to expire when stored on from
func (p ExpiryPrediction) ExpiresOn(from time.Time) time.Time {
	y, m, d := from.Date()
	return time.Date(y, m, d+p.Days, 0, 0, 0, 0, from.Location())
}
