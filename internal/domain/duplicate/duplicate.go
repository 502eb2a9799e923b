// Package duplicate defines the outcome of a duplicate check.
package duplicate

import "github.com/bakwc/ppg-incidents/internal/domain/incident"

// Confidence is the tier that produced the candidates.
type Confidence string

// Confidence tiers, strongest first.
const (
	High   Confidence = "High"
	Medium Confidence = "Medium"
	Low    Confidence = "Low"
)

// Result is the outcome of a duplicate check. Low results may carry no incidents.
type Result struct {
	Confidence Confidence          `json:"confidence"`
	Incidents  []incident.Incident `json:"incidents"`
}
