package incident

import (
	"strings"

	"github.com/bakwc/ppg-incidents/internal/domain/incident"
)

// textColumn binds a nullable TEXT column to a string field; "" is stored as NULL.
type textColumn struct {
	name  string
	field func(*incident.Incident) *string
}

var textColumns = []textColumn{
	{"title", func(i *incident.Incident) *string { return &i.Title }},
	{"summary", func(i *incident.Incident) *string { return &i.Summary }},
	{"date", func(i *incident.Incident) *string { return &i.Date }},
	{"time", func(i *incident.Incident) *string { return &i.Time }},
	{"country", func(i *incident.Incident) *string { return &i.Country }},
	{"city_or_site", func(i *incident.Incident) *string { return &i.CityOrSite }},
	{"paramotor_type", func(i *incident.Incident) *string { return &i.ParamotorType }},
	{"paramotor_frame", func(i *incident.Incident) *string { return &i.ParamotorFrame }},
	{"paramotor_engine", func(i *incident.Incident) *string { return &i.ParamotorEngine }},
	{"wing_manufacturer", func(i *incident.Incident) *string { return &i.WingManufacturer }},
	{"wing_model", func(i *incident.Incident) *string { return &i.WingModel }},
	{"wing_size", func(i *incident.Incident) *string { return &i.WingSize }},
	{"pilot", func(i *incident.Incident) *string { return &i.Pilot }},
	{"flight_phase", func(i *incident.Incident) *string { return &i.FlightPhase }},
	{"severity", func(i *incident.Incident) *string { return &i.Severity }},
	{"injury_details", func(i *incident.Incident) *string { return &i.InjuryDetails }},
	{"description", func(i *incident.Incident) *string { return &i.Description }},
	{"causes_description", func(i *incident.Incident) *string { return &i.CausesDescription }},
	{"primary_cause", func(i *incident.Incident) *string { return &i.PrimaryCause }},
	{"pilot_actions", func(i *incident.Incident) *string { return &i.PilotActions }},
	{"cause_confidence", func(i *incident.Incident) *string { return &i.CauseConfidence }},
	{"reserve_use", func(i *incident.Incident) *string { return &i.ReserveUse }},
	{"surface_type", func(i *incident.Incident) *string { return &i.SurfaceType }},
	{"factor_accelerator", func(i *incident.Incident) *string { return &i.FactorAccelerator }},
	{"factor_trimmer_position", func(i *incident.Incident) *string { return &i.FactorTrimmerPosition }},
	{"mid_air_collision", func(i *incident.Incident) *string { return &i.MidAirCollision }},
	{"source_links", func(i *incident.Incident) *string { return &i.SourceLinks }},
	{"media_links", func(i *incident.Incident) *string { return &i.MediaLinks }},
	{"wind_speed", func(i *incident.Incident) *string { return &i.WindSpeed }},
	{"meteorological_conditions", func(i *incident.Incident) *string { return &i.MeteorologicalConditions }},
	{"thermal_conditions", func(i *incident.Incident) *string { return &i.ThermalConditions }},
}

// boolColumns are nullable flags stored as INTEGER 0/1.
var boolColumns = []struct {
	name  string
	field func(*incident.Incident) **bool
}{
	{"potentially_fatal", func(i *incident.Incident) **bool { return &i.PotentiallyFatal }},
	{"hardware_failure", func(i *incident.Incident) **bool { return &i.HardwareFailure }},
	{"bad_hardware_preflight", func(i *incident.Incident) **bool { return &i.BadHardwarePreflight }},
}

// fixedColumns follow the text and bool columns in every INSERT/UPDATE/SELECT.
var fixedColumns = []string{
	"flight_altitude", "wind_speed_ms", "collapse_types", "verified", "created_at", "updated_at",
}

// writeColumns lists every column except id, in bind order.
func writeColumns() []string {
	cols := []string{"uuid"}
	for _, c := range textColumns {
		cols = append(cols, c.name)
	}
	for _, c := range boolColumns {
		cols = append(cols, c.name)
	}
	cols = append(cols, fixedColumns...)
	for _, f := range incident.Factors {
		cols = append(cols, f.Name)
	}
	return cols
}

var (
	columnList   = writeColumns()
	selectList   = "id, " + strings.Join(columnList, ", ")
	insertSQL    = "INSERT INTO incidents (" + strings.Join(columnList, ", ") + ") VALUES (" + placeholders(len(columnList)) + ")"
	updateSQL    = "UPDATE incidents SET " + strings.Join(assignments(columnList[1:]), ", ") + " WHERE id = ?"
	selectPrefix = "SELECT " + selectList + " FROM incidents"
)

// Schema returns the DDL for the incidents table and its indexes.
func Schema() []string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS incidents (\n")
	b.WriteString("\tid INTEGER PRIMARY KEY AUTOINCREMENT,\n")
	b.WriteString("\tuuid TEXT NOT NULL UNIQUE,\n")
	for _, c := range textColumns {
		b.WriteString("\t" + c.name + " TEXT,\n")
	}
	for _, c := range boolColumns {
		b.WriteString("\t" + c.name + " INTEGER,\n")
	}
	b.WriteString("\tflight_altitude INTEGER,\n")
	b.WriteString("\twind_speed_ms REAL,\n")
	b.WriteString("\tcollapse_types TEXT,\n")
	b.WriteString("\tverified INTEGER NOT NULL DEFAULT 0,\n")
	b.WriteString("\tcreated_at INTEGER NOT NULL,\n")
	b.WriteString("\tupdated_at INTEGER NOT NULL")
	for _, f := range incident.Factors {
		b.WriteString(",\n\t" + f.Name + " INTEGER")
	}
	b.WriteString("\n)")

	return []string{
		b.String(),
		"CREATE INDEX IF NOT EXISTS incidents_date_idx ON incidents (date, time)",
		"CREATE INDEX IF NOT EXISTS incidents_country_idx ON incidents (country)",
		"CREATE INDEX IF NOT EXISTS incidents_verified_idx ON incidents (verified)",
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func assignments(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c + " = ?"
	}
	return out
}
