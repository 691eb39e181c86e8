// Package normalize turns raw message logs into clean incident points.
package normalize

import (
	"github.com/skainet/concentration-map/internal/models"
)

// DefaultSenderName is used when a log carries no sender
const DefaultSenderName = "Unknown"

// Result is the output of one normalization pass
type Result struct {
	Points  []models.IncidentPoint
	Dropped models.DropStats
}

// Normalize filters, coerces and deduplicates raw logs.
// Records without finite coordinates, with an unknown urgency label, or marked
// rescued are dropped. Of several records sharing (source_node, message_id)
// only the first is kept. Input order is preserved.
func Normalize(raw []models.RawMessage) Result {
	res := Result{Points: make([]models.IncidentPoint, 0, len(raw))}
	seen := make(map[models.IncidentKey]struct{}, len(raw))

	for _, m := range raw {
		if m == nil {
			res.Dropped.Malformed++
			continue
		}
		if m.Bool(models.FieldRescued) {
			res.Dropped.Resolved++
			continue
		}

		p, ok := toPoint(m)
		if !ok {
			res.Dropped.Malformed++
			continue
		}

		key := p.Key()
		if _, dup := seen[key]; dup {
			res.Dropped.Duplicate++
			continue
		}
		seen[key] = struct{}{}
		res.Points = append(res.Points, p)
	}

	return res
}

// Points is Normalize without the drop statistics
func Points(raw []models.RawMessage) []models.IncidentPoint {
	return Normalize(raw).Points
}

func toPoint(m models.RawMessage) (models.IncidentPoint, bool) {
	lat, ok := m.Float(models.FieldLatitude)
	if !ok {
		return models.IncidentPoint{}, false
	}
	lon, ok := m.Float(models.FieldLongitude)
	if !ok {
		return models.IncidentPoint{}, false
	}

	urgency, ok := models.ParseUrgency(m.String(models.FieldUrgency))
	if !ok {
		return models.IncidentPoint{}, false
	}

	name := m.String(models.FieldSenderName)
	if name == "" {
		name = DefaultSenderName
	}

	return models.IncidentPoint{
		SourceID:    m.String(models.FieldSourceNode),
		CurrentNode: m.String(models.FieldCurrentNode),
		MessageID:   m.String(models.FieldMessageID),
		SenderName:  name,
		Message:     m.String(models.FieldMessage),
		Location:    models.Location{Lat: lat, Lon: lon},
		Urgency:     urgency,
	}, true
}

// Stats computes the snapshot counters shown next to the map
func Stats(raw []models.RawMessage, points []models.IncidentPoint) models.SnapshotStats {
	var s models.SnapshotStats
	s.Total = len(points)
	for _, p := range points {
		switch p.Urgency {
		case models.UrgencyHigh:
			s.High++
		case models.UrgencyMedium:
			s.Medium++
		case models.UrgencyLow:
			s.Low++
		}
	}
	for _, m := range raw {
		if m == nil || !m.HasGPS() {
			continue
		}
		if m.Bool(models.FieldRescued) {
			s.Rescued++
		} else {
			s.Live++
		}
	}
	return s
}
