// Package incident holds the incident record and its derived text.
package incident

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bakwc/ppg-incidents/internal/domain"
)

var (
	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRegex = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?$`)
)

// Incident is one reported paramotor incident. Empty strings and nil pointers mean "unset".
type Incident struct {
	ID   int64  `json:"id"`
	UUID string `json:"uuid"`

	Title   string `json:"title"`
	Summary string `json:"summary"`

	Date       string `json:"date"` // YYYY-MM-DD
	Time       string `json:"time"` // HH:MM[:SS]
	Country    string `json:"country"`
	CityOrSite string `json:"city_or_site"`

	ParamotorType    string `json:"paramotor_type"`
	ParamotorFrame   string `json:"paramotor_frame"`
	ParamotorEngine  string `json:"paramotor_engine"`
	WingManufacturer string `json:"wing_manufacturer"`
	WingModel        string `json:"wing_model"`
	WingSize         string `json:"wing_size"`

	Pilot          string `json:"pilot"`
	FlightAltitude *int   `json:"flight_altitude"`
	FlightPhase    string `json:"flight_phase"`

	Severity          string `json:"severity"`
	PotentiallyFatal  *bool  `json:"potentially_fatal"`
	InjuryDetails     string `json:"injury_details"`
	Description       string `json:"description"`
	CausesDescription string `json:"causes_description"`

	PrimaryCause         string `json:"primary_cause"`
	PilotActions         string `json:"pilot_actions"`
	CauseConfidence      string `json:"cause_confidence"`
	ReserveUse           string `json:"reserve_use"`
	SurfaceType          string `json:"surface_type"`
	HardwareFailure      *bool  `json:"hardware_failure"`
	BadHardwarePreflight *bool  `json:"bad_hardware_preflight"`

	FactorAccelerator     string          `json:"factor_accelerator"`
	FactorTrimmerPosition string          `json:"factor_trimmer_position"`
	MidAirCollision       string          `json:"mid_air_collision"`
	CollapseTypes         []string        `json:"collapse_types"`
	Factors               map[string]bool `json:"-"`

	SourceLinks string `json:"source_links"`
	MediaLinks  string `json:"media_links"`

	WindSpeed                string   `json:"wind_speed"`
	WindSpeedMS              *float64 `json:"wind_speed_ms"`
	MeteorologicalConditions string   `json:"meteorological_conditions"`
	ThermalConditions        string   `json:"thermal_conditions"`

	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUUID returns a fresh external identifier.
func NewUUID() string {
	return uuid.NewString()
}

// ParseUUID normalizes an external identifier, rejecting malformed input.
func ParseUUID(s string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: malformed uuid %q", domain.ErrInvalidRequest, s)
	}
	return u.String(), nil
}

// Factor returns the value of a factor column and whether it is set.
func (i *Incident) Factor(name string) (value, ok bool) {
	value, ok = i.Factors[name]
	return value, ok
}

// SetFactor sets a factor column.
func (i *Incident) SetFactor(name string, value bool) {
	if i.Factors == nil {
		i.Factors = make(map[string]bool)
	}
	i.Factors[name] = value
}

// Year returns the year of Date, or 0 when the date is unset.
func (i *Incident) Year() int {
	if len(i.Date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(i.Date[:4])
	if err != nil {
		return 0
	}
	return y
}

// Links returns every non-empty source and media link, one per line in storage.
func (i *Incident) Links() []string {
	var out []string
	for _, block := range []string{i.SourceLinks, i.MediaLinks} {
		for _, line := range strings.Split(block, "\n") {
			if l := strings.TrimSpace(line); l != "" {
				out = append(out, l)
			}
		}
	}
	return out
}

// Validate checks categorical codes and date/time formats.
func (i *Incident) Validate() error {
	checks := []struct {
		field   string
		value   string
		choices Choices
	}{
		{"flight_phase", i.FlightPhase, FlightPhases},
		{"severity", i.Severity, Severities},
		{"reserve_use", i.ReserveUse, ReserveUses},
		{"cause_confidence", i.CauseConfidence, CauseConfidences},
		{"primary_cause", i.PrimaryCause, PrimaryCauses},
		{"pilot_actions", i.PilotActions, PilotActions},
		{"factor_accelerator", i.FactorAccelerator, Accelerator},
		{"factor_trimmer_position", i.FactorTrimmerPosition, TrimmerPositions},
		{"paramotor_type", i.ParamotorType, ParamotorTypes},
		{"mid_air_collision", i.MidAirCollision, MidAirCollisions},
	}
	for _, c := range checks {
		if c.value != "" && !c.choices.Has(c.value) {
			return fmt.Errorf("%w: %s %q is not a valid choice", domain.ErrInvalidRequest, c.field, c.value)
		}
	}
	for _, ct := range i.CollapseTypes {
		if !CollapseTypes.Has(ct) {
			return fmt.Errorf("%w: collapse_types %q is not a valid choice", domain.ErrInvalidRequest, ct)
		}
	}
	if i.Date != "" {
		if !dateRegex.MatchString(i.Date) {
			return fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", domain.ErrInvalidRequest, i.Date)
		}
		if _, err := time.Parse(time.DateOnly, i.Date); err != nil {
			return fmt.Errorf("%w: date %q is not a calendar date", domain.ErrInvalidRequest, i.Date)
		}
	}
	if i.Time != "" && !timeRegex.MatchString(i.Time) {
		return fmt.Errorf("%w: time must be HH:MM or HH:MM:SS, got %q", domain.ErrInvalidRequest, i.Time)
	}
	for name := range i.Factors {
		if !IsFactor(name) {
			return fmt.Errorf("%w: unknown factor %q", domain.ErrInvalidRequest, name)
		}
	}
	return nil
}

// MarshalJSON flattens factor columns next to the regular fields; unset factors are null.
func (i Incident) MarshalJSON() ([]byte, error) {
	type plain Incident
	base, err := json.Marshal(plain(i))
	if err != nil {
		return nil, fmt.Errorf("marshal incident: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, fmt.Errorf("marshal incident: %w", err)
	}
	for _, f := range Factors {
		v, ok := i.Factors[f.Name]
		switch {
		case !ok:
			fields[f.Name] = json.RawMessage("null")
		case v:
			fields[f.Name] = json.RawMessage("true")
		default:
			fields[f.Name] = json.RawMessage("false")
		}
	}
	return json.Marshal(fields)
}

// UnmarshalJSON reads flat factor keys into Factors; null leaves a factor unset.
func (i *Incident) UnmarshalJSON(data []byte) error {
	type plain Incident
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("unmarshal incident: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal incident: %w", err)
	}
	p.Factors = nil
	for _, f := range Factors {
		v, ok := raw[f.Name]
		if !ok || string(v) == "null" {
			continue
		}
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return fmt.Errorf("unmarshal incident: %s must be a boolean: %w", f.Name, err)
		}
		if p.Factors == nil {
			p.Factors = make(map[string]bool)
		}
		p.Factors[f.Name] = b
	}

	*i = Incident(p)
	return nil
}
