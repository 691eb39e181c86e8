// Package majority picks the display category of a cluster from its urgency counts.
package majority

import "github.com/skainet/concentration-map/internal/models"

// Display categories, in precedence order
var (
	Critical = models.Category{Urgency: models.UrgencyHigh, Color: "#ef4444", Label: "CRITICAL"}
	Warning  = models.Category{Urgency: models.UrgencyMedium, Color: "#f59e0b", Label: "WARNING"}
	Low      = models.Category{Urgency: models.UrgencyLow, Color: "#10b981", Label: "LOW"}
	Info     = models.Category{Urgency: models.UrgencyNone, Color: "#3b82f6", Label: "INFO"}
)

// CategoryOf returns the display category for a single urgency level
func CategoryOf(u models.Urgency) models.Category {
	switch u {
	case models.UrgencyHigh:
		return Critical
	case models.UrgencyMedium:
		return Warning
	case models.UrgencyLow:
		return Low
	}
	return Info
}

// Classify returns the category of the most frequent urgency.
// Ties go to the higher urgency (HIGH > MEDIUM > LOW > NONE).
// All-zero counts fall back to INFO.
func Classify(counts models.UrgencyCounts) models.Category {
	best := models.UrgencyNone
	top := 0
	for _, u := range models.Urgencies {
		if n := counts.Of(u); n > top {
			best, top = u, n
		}
	}
	return CategoryOf(best)
}
