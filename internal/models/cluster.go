package models

// UrgencyCounts holds the number of members per urgency level
type UrgencyCounts struct {
	High   int `json:"HIGH"`
	Medium int `json:"MEDIUM"`
	Low    int `json:"LOW"`
	None   int `json:"NONE"`
}

// Add counts one member with urgency u; unknown values count as NONE
func (c *UrgencyCounts) Add(u Urgency) {
	switch u {
	case UrgencyHigh:
		c.High++
	case UrgencyMedium:
		c.Medium++
	case UrgencyLow:
		c.Low++
	default:
		c.None++
	}
}

// Of returns the count for urgency u
func (c UrgencyCounts) Of(u Urgency) int {
	switch u {
	case UrgencyHigh:
		return c.High
	case UrgencyMedium:
		return c.Medium
	case UrgencyLow:
		return c.Low
	case UrgencyNone:
		return c.None
	}
	return 0
}

// Total returns the sum of all counts
func (c UrgencyCounts) Total() int {
	return c.High + c.Medium + c.Low + c.None
}

// Cluster is a group of incident points drawn as a single marker.
// Centroid is always the mean of the member locations and
// UrgencyCounts.Total() always equals len(Members).
type Cluster struct {
	CellID        string          `json:"cellId"`
	Centroid      Location        `json:"centroid"`
	Members       []IncidentPoint `json:"members"`
	UrgencyCounts UrgencyCounts   `json:"urgencyCounts"`
	RadiusMeters  float64         `json:"radiusMeters"`
}

// Size returns the number of members
func (c Cluster) Size() int {
	return len(c.Members)
}

// Category is the display class chosen for a marker
type Category struct {
	Urgency Urgency `json:"urgency"`
	Color   string  `json:"color"`
	Label   string  `json:"label"`
}
