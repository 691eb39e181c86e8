package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/skainet/concentration-map/internal/models"
)

// Popup is the content shown when a marker is clicked
type Popup struct {
	Title      string   `json:"title"`
	TitleColor string   `json:"titleColor,omitempty"`
	Badge      string   `json:"badge,omitempty"`
	BadgeColor string   `json:"badgeColor,omitempty"`
	Body       string   `json:"body"`
	Details    []string `json:"details,omitempty"`
}

// IncidentPopup describes a single incident
func IncidentPopup(p models.IncidentPoint) Popup {
	return Popup{
		Title:      p.SenderName,
		Badge:      string(p.Urgency),
		BadgeColor: IncidentColor(p.Urgency),
		Body:       p.Message,
		Details: []string{
			fmt.Sprintf("Node %s → %s | ID: %s", p.SourceID, p.CurrentNode, p.MessageID),
			fmt.Sprintf("%.5f, %.5f", p.Location.Lat, p.Location.Lon),
		},
	}
}

// ClusterPopup summarizes a cluster drawn in category cat
func ClusterPopup(c models.Cluster, cat models.Category) Popup {
	details := []string{
		fmt.Sprintf("High: %d | Medium: %d | Low: %d",
			c.UrgencyCounts.High, c.UrgencyCounts.Medium, c.UrgencyCounts.Low),
	}
	if c.RadiusMeters >= 1 {
		details = append(details, fmt.Sprintf("Within %.0f m of %.5f, %.5f",
			c.RadiusMeters, c.Centroid.Lat, c.Centroid.Lon))
	}
	return Popup{
		Title:      cat.Label + " ZONE",
		TitleColor: cat.Color,
		Body:       fmt.Sprintf("%d incidents in this area", c.Size()),
		Details:    details,
	}
}

var popupTemplate = template.Must(template.New("popup").Parse(
	`<div class="popup">` +
		`<div class="popup-head"><strong{{with .TitleColor}} style="color:{{.}}"{{end}}>{{.Title}}</strong>` +
		`{{with .Badge}}<span class="badge" style="background:{{$.BadgeColor}}">{{.}}</span>{{end}}</div>` +
		`<p>{{.Body}}</p>` +
		`{{range .Details}}<div class="detail">{{.}}</div>{{end}}` +
		`</div>`))

// HTML renders the popup with all text escaped
func (p Popup) HTML() string {
	var buf bytes.Buffer
	if err := popupTemplate.Execute(&buf, p); err != nil {
		return template.HTMLEscapeString(p.Title)
	}
	return buf.String()
}
