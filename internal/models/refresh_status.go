package models

import "time"

// ViewMode is how the map surface is currently drawn
type ViewMode string

const (
	ViewIndividual ViewMode = "INDIVIDUAL"
	ViewCluster    ViewMode = "CLUSTER"
)

// SnapshotStats are the incident counters of one snapshot
type SnapshotStats struct {
	Total   int `json:"total"`   // normalized points
	High    int `json:"high"`    // normalized points with HIGH urgency
	Medium  int `json:"medium"`  // normalized points with MEDIUM urgency
	Low     int `json:"low"`     // normalized points with LOW urgency
	Live    int `json:"live"`    // raw records with gps that are not rescued
	Rescued int `json:"rescued"` // raw records with gps that are rescued
}

// DropStats counts records discarded by the normalizer
type DropStats struct {
	Malformed int `json:"malformed"`
	Resolved  int `json:"resolved"`
	Duplicate int `json:"duplicate"`
}

// RefreshStatus describes the latest completed recomputation
type RefreshStatus struct {
	Generation  uint64        `json:"generation"`
	Trigger     string        `json:"trigger"`
	Mode        ViewMode      `json:"mode"`
	Zoom        int           `json:"zoom"`
	Points      int           `json:"points"`
	Clusters    int           `json:"clusters"`
	Markers     int           `json:"markers"`
	Stats       SnapshotStats `json:"stats"`
	Dropped     DropStats     `json:"dropped"`
	LastFetch   *time.Time    `json:"lastFetch,omitempty"`
	LastRender  *time.Time    `json:"lastRender,omitempty"`
	LastError   string        `json:"lastError,omitempty"`
	SurfaceDown bool          `json:"surfaceDown"`
}

// ViewportRequest is sent by map clients when their zoom changes
type ViewportRequest struct {
	Zoom *int `json:"zoom" binding:"required"`
}
