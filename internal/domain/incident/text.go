package incident

import (
	"strconv"
	"strings"
)

// Text renders the flattened "Label: value" form fed to both the full-text and the vector index.
// Unset fields are omitted; the line order is stable so identical records produce identical text.
func (i *Incident) Text() string {
	var b strings.Builder
	line := func(label, value string) {
		if value = strings.TrimSpace(value); value == "" {
			return
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}

	line("Title", i.Title)
	line("Summary", i.Summary)
	line("Date", i.Date)
	line("Time", i.Time)
	line("Country", i.Country)
	line("City or site", i.CityOrSite)
	line("Pilot", i.Pilot)

	line("Paramotor type", labelOf(ParamotorTypes, i.ParamotorType))
	line("Paramotor frame", i.ParamotorFrame)
	line("Paramotor engine", i.ParamotorEngine)
	line("Wing manufacturer", i.WingManufacturer)
	line("Wing model", i.WingModel)
	line("Wing size", i.WingSize)

	if i.FlightAltitude != nil {
		line("Flight altitude", strconv.Itoa(*i.FlightAltitude)+" m")
	}
	line("Flight phase", labelOf(FlightPhases, i.FlightPhase))
	line("Severity", labelOf(Severities, i.Severity))
	line("Potentially fatal", yesNo(i.PotentiallyFatal))
	line("Injury details", i.InjuryDetails)
	line("Description", i.Description)
	line("Causes", i.CausesDescription)
	line("Primary cause", labelOf(PrimaryCauses, i.PrimaryCause))
	line("Cause confidence", labelOf(CauseConfidences, i.CauseConfidence))
	line("Pilot actions", labelOf(PilotActions, i.PilotActions))
	line("Reserve use", labelOf(ReserveUses, i.ReserveUse))
	line("Surface type", i.SurfaceType)
	line("Hardware failure", yesNo(i.HardwareFailure))
	line("Bad hardware preflight", yesNo(i.BadHardwarePreflight))
	line("Accelerator", labelOf(Accelerator, i.FactorAccelerator))
	line("Trimmer position", labelOf(TrimmerPositions, i.FactorTrimmerPosition))
	line("Mid-air collision", labelOf(MidAirCollisions, i.MidAirCollision))

	if len(i.CollapseTypes) > 0 {
		labels := make([]string, 0, len(i.CollapseTypes))
		for _, ct := range i.CollapseTypes {
			labels = append(labels, CollapseTypes.Label(ct))
		}
		line("Collapse types", strings.Join(labels, ", "))
	}

	var present, absent []string
	for _, f := range Factors {
		v, ok := i.Factors[f.Name]
		switch {
		case !ok:
		case v:
			present = append(present, f.Label)
		default:
			absent = append(absent, f.Label)
		}
	}
	line("Contributing factors", strings.Join(present, ", "))
	line("Not a factor", strings.Join(absent, ", "))

	line("Wind speed", i.WindSpeed)
	if i.WindSpeedMS != nil {
		line("Wind speed (m/s)", strconv.FormatFloat(*i.WindSpeedMS, 'f', -1, 64))
	}
	line("Meteorological conditions", i.MeteorologicalConditions)
	line("Thermal conditions", i.ThermalConditions)

	return strings.TrimRight(b.String(), "\n")
}

func labelOf(c Choices, code string) string {
	if code == "" {
		return ""
	}
	return c.Label(code)
}

func yesNo(v *bool) string {
	switch {
	case v == nil:
		return ""
	case *v:
		return "Yes"
	default:
		return "No"
	}
}
