package types

import "time"

type Status string

const (
	Pending    Status = "pending"
	InProgress Status = "in-progress"
	Resolved   Status = "resolved"
)

func (s Status) IsValid() bool {
	switch s {
	case Pending, InProgress, Resolved:
		return true
	}
	return false
}

// Incident is the deduplicated aggregate of one or more RawReports believed to
// describe the same real-world event.
type Incident struct {
	ID           string       `firestore:"-" json:"id"`
	DisasterType DisasterType `firestore:"disasterType" json:"disasterType"`

	// Location is the place name of the first report in the aggregate.
	Location    string  `firestore:"location" json:"location"`
	Coordinates *LatLng `firestore:"coordinates,omitempty" json:"coordinates,omitempty"`

	// Severity is the maximum asserted severity across member reports. It never
	// decreases while reports keep arriving.
	Severity    Severity `firestore:"severity" json:"severity"`
	ReportCount int      `firestore:"reportCount" json:"reportCount"`

	// Description is carried from the first member report that had one.
	Description string `firestore:"description,omitempty" json:"description,omitempty"`

	// Status is partner-managed and independent of report volume.
	Status Status `firestore:"status" json:"status"`

	FirstSeenAt time.Time `firestore:"firstSeenAt" json:"firstSeenAt"`
	LastSeenAt  time.Time `firestore:"lastSeenAt" json:"lastSeenAt"`

	// LocatedCount is the number of member reports that carried coordinates,
	// needed to keep the running centroid exact.
	LocatedCount int `firestore:"locatedCount" json:"-"`

	// Version counts committed aggregate mutations. Writers must present the
	// version they read for the update to commit.
	Version int64 `firestore:"version" json:"-"`
}

// Stats are the dashboard counts served to partners.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}
