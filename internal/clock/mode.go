package clock

// Mode is the active UI state. Modes after the setting sentinel edit a
// value; the others only show one.
type Mode int

// Viewing modes, then the sentinel, then setting modes. The order matters:
// swing cycles through the viewing modes up to ModeDayDiff and anything
// after modeSetting is a setting mode.
const (
	ModeBlank Mode = iota + 1
	ModeClock
	ModeDate
	ModeTemperature
	ModeDayDiff
	ModeYear
	ModeSensors
	ModeHit
	ModeCountdown

	modeSetting

	ModeSetHours
	ModeSetMinutes
	ModeSetDay
	ModeSetMonth
	ModeSetYear
	ModeSetAlarmHours
	ModeSetAlarmMinutes
	ModeSetAlarmEnable
	ModeSetAnimation
	ModeSetDimming
)

// IsSetting reports whether m edits a value.
func (m Mode) IsSetting() bool {
	return m > modeSetting
}

var modeNames = map[Mode]string{
	ModeBlank:           "BLANK",
	ModeClock:           "CLOCK",
	ModeDate:            "DATE",
	ModeTemperature:     "TEMPERATURE",
	ModeDayDiff:         "DAY_DIFF",
	ModeYear:            "YEAR",
	ModeSensors:         "SENSORS",
	ModeHit:             "HIT",
	ModeCountdown:       "COUNTDOWN",
	ModeSetHours:        "SET_HOURS",
	ModeSetMinutes:      "SET_MINUTES",
	ModeSetDay:          "SET_DAY",
	ModeSetMonth:        "SET_MONTH",
	ModeSetYear:         "SET_YEAR",
	ModeSetAlarmHours:   "SET_ALARM_HOURS",
	ModeSetAlarmMinutes: "SET_ALARM_MINUTES",
	ModeSetAlarmEnable:  "SET_ALARM_ENABLE",
	ModeSetAnimation:    "SET_ANIMATION",
	ModeSetDimming:      "SET_DIMMING",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "UNKNOWN"
}

// autoReturns reports whether m falls back to the clock view when its
// timeout runs out.
func (m Mode) autoReturns() bool {
	switch m {
	case ModeDate, ModeYear, ModeSensors, ModeCountdown:
		return true
	}
	return m.IsSetting()
}
