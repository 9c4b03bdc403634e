package types

import "time"

type DisasterType string

const (
	PowerOutage DisasterType = "power-outage"
	Fire        DisasterType = "fire"
	Flood       DisasterType = "flood"
	Drought     DisasterType = "drought"
)

// DisasterTypes lists every accepted report type, in display order.
var DisasterTypes = []DisasterType{PowerOutage, Fire, Flood, Drought}

func (d DisasterType) IsValid() bool {
	switch d {
	case PowerOutage, Fire, Flood, Drought:
		return true
	}
	return false
}

type Severity string

const (
	Low      Severity = "low"
	Medium   Severity = "medium"
	High     Severity = "high"
	Critical Severity = "critical"
)

func (s Severity) IsValid() bool {
	switch s {
	case Low, Medium, High, Critical:
		return true
	}
	return false
}

// Rank gives the ordinal position of a severity (low < medium < high < critical).
// Unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case Low:
		return 1
	case Medium:
		return 2
	case High:
		return 3
	case Critical:
		return 4
	}
	return 0
}

// MaxSeverity returns the more urgent of the two severities.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// LatLng is a geographic point in decimal degrees.
type LatLng struct {
	Lat float64 `firestore:"lat" json:"lat"`
	Lng float64 `firestore:"lng" json:"lng"`
}

// RawReport is one citizen submission. Reports are immutable once ingested;
// they are never reassigned to another incident.
type RawReport struct {
	ID           string       `firestore:"-" json:"id"`
	DisasterType DisasterType `firestore:"disasterType" json:"disasterType"`
	Location     string       `firestore:"location" json:"location"`
	Coordinates  *LatLng      `firestore:"coordinates,omitempty" json:"coordinates,omitempty"`
	Severity     Severity     `firestore:"severity" json:"severity"`
	Description  string       `firestore:"description,omitempty" json:"description,omitempty"`
	SubmittedAt  time.Time    `firestore:"submittedAt" json:"submittedAt"`
}
