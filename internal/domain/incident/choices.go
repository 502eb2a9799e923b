package incident

// Choice is one allowed code of a categorical field and its display label.
type Choice struct {
	Code  string
	Label string
}

// Choices is an ordered set of allowed codes.
type Choices []Choice

// Has reports whether code is allowed.
func (c Choices) Has(code string) bool {
	for _, ch := range c {
		if ch.Code == code {
			return true
		}
	}
	return false
}

// Label returns the display label for code, or code itself when unknown.
func (c Choices) Label(code string) string {
	for _, ch := range c {
		if ch.Code == code {
			return ch.Label
		}
	}
	return code
}

var (
	FlightPhases = Choices{
		{"ground", "Ground"},
		{"takeoff", "Takeoff"},
		{"landing", "Landing"},
		{"flight", "Flight"},
	}

	Severities = Choices{
		{"fatal", "Fatal"},
		{"serious", "Serious"},
		{"minor", "Minor"},
	}

	ReserveUses = Choices{
		{"not_installed", "Not installed"},
		{"not_deployed", "Not deployed"},
		{"no_time", "Did not have time to open"},
		{"tangled", "Became tangled"},
		{"partially_opened", "Partially opened"},
		{"fully_opened", "Fully opened"},
	}

	CauseConfidences = Choices{
		{"maximum", "Maximum, exactly determined"},
		{"high", "High, very likely identified"},
		{"low", "Low, plausible assumptions"},
		{"minimal", "Minimal, nothing is clear"},
	}

	PrimaryCauses = Choices{
		{"turbulence", "Turbulence"},
		{"wrong_control_input", "Wrong control input"},
		{"hardware_failure", "Hardware failure"},
		{"powerline_collision", "Powerline collision / Near miss"},
		{"midair_collision", "Midair collision / Near miss"},
		{"lines_brakes_issues", "Lines & brakes knots / twists / obstructions"},
		{"water_landing", "Water landing"},
		{"preflight_error", "Preflight error"},
		{"ground_starting", "Ground starting"},
		{"ground_object_collision", "Ground object collision / Near miss"},
		{"rain_fog_snow", "Rain / Fog / Snow / Mist"},
		{"torque_twist", "Torque twist"},
		{"ground_handling", "Ground handling"},
	}

	PilotActions = Choices{
		{"wrong_input_triggered", "Wrong input triggered incident"},
		{"mostly_wrong", "Mostly wrong inputs while reacting"},
		{"mixed", "Some correct and some wrong inputs"},
		{"mostly_correct", "Mostly correct inputs while reacting"},
	}

	Accelerator = Choices{
		{"not_used", "Not used"},
		{"released", "Released"},
		{"partially_engaged", "Partially engaged"},
		{"fully_engaged", "Fully engaged"},
	}

	TrimmerPositions = Choices{
		{"closed", "Closed"},
		{"partially_open", "Partially open"},
		{"fully_open", "Fully open"},
	}

	ParamotorTypes = Choices{
		{"footlaunch", "Footlaunch"},
		{"trike", "Trike"},
	}

	MidAirCollisions = Choices{
		{"fly_nearby", "Fly nearby"},
		{"got_in_wake_turbulence", "Got in wake turbulence"},
		{"almost_collided", "Almost collided"},
		{"collided", "Collided"},
	}

	CollapseTypes = Choices{
		{"asymmetric_small", "Asymmetric collapse (<30%)"},
		{"asymmetric_medium", "Asymmetric collapse (30-50%)"},
		{"asymmetric_large", "Asymmetric collapse (>50%)"},
		{"frontal", "Frontal collapse"},
		{"full_stall", "Full stall"},
		{"spin", "Spin"},
		{"line_twist", "Line twist"},
		{"cravatte", "Cravatte"},
		{"unknown", "Unknown collapse"},
	}
)

// Factor is a nullable boolean contributing-factor column.
type Factor struct {
	Name  string
	Label string
}

// Factors lists every factor_* boolean column in storage order.
var Factors = []Factor{
	{"factor_low_altitude", "Low flight altitude"},
	{"factor_maneuvers", "Performed maneuvers"},
	{"factor_thermal_weather", "Thermally active weather"},
	{"factor_rotor_turbulence", "Entered rotor turbulence"},
	{"factor_turbulent_conditions", "Turbulent conditions"},
	{"factor_wind_shear", "Wind shear"},
	{"factor_gust_front", "Gust front"},
	{"factor_wake_turbulence", "Wake turbulence"},
	{"factor_rain", "Rain"},
	{"factor_powerline_collision", "Powerline collision"},
	{"factor_water_landing", "Landed / fell in water"},
	{"factor_tree_collision", "Landed / collided with tree"},
	{"factor_ground_object_collision", "Ground object collision"},
	{"factor_mid_air_collision", "Mid-air collision"},
	{"factor_ground_starting", "Ground starting"},
	{"factor_helmet_worn", "Helmet worn"},
	{"factor_helmet_missing", "Helmet missing"},
	{"factor_reflex_profile", "Presence of reflex profile"},
	{"factor_spiral_maneuver", "Spiral maneuver"},
	{"factor_engine_failure", "Engine failure"},
	{"factor_trimmers_failure", "Trimmers failure"},
	{"factor_structural_failure", "Structural failure"},
	{"factor_fire", "Fire"},
	{"factor_throttle_system_issues", "Throttle system issues"},
	{"factor_paraglider_failure", "Paraglider failure"},
	{"factor_released_brake_toggle", "Released brake toggle"},
	{"factor_wrongly_adjusted_trims", "Wrongly adjusted trims"},
	{"factor_accidental_reserve_deployment", "Accidental reserve deployment"},
	{"factor_accidental_motor_kill", "Accidental motor kill"},
	{"factor_student_pilot", "Student pilot"},
	{"factor_wrong_throttle_management", "Wrong throttle management"},
	{"factor_oscillations_out_of_control", "Oscillations out of control"},
	{"factor_medical_issues", "Medical issues"},
}

// IsFactor reports whether name is a known factor column.
func IsFactor(name string) bool {
	for _, f := range Factors {
		if f.Name == name {
			return true
		}
	}
	return false
}
