package cftime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DateTime is a fully-known calendar date and time of day.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// TimeUnit is a parsed reference unit string such as
// "days since 1950-01-01" or "hours since 1850-01-01 06:00:00".
type TimeUnit struct {
	SecondsPerStep float64
	Epoch          DateTime
}

// ParseUnit parses a CF-style "<step> since <date>[ <time>]" unit string.
func ParseUnit(s string) (TimeUnit, error) {
	parts := strings.Fields(s)
	if len(parts) < 3 || !strings.EqualFold(parts[1], "since") {
		return TimeUnit{}, fmt.Errorf("%w: %q", ErrUnsupportedUnit, s)
	}

	var secs float64
	switch strings.ToLower(parts[0]) {
	case "days", "day", "d":
		secs = 86400
	case "hours", "hour", "hr", "h":
		secs = 3600
	case "minutes", "minute", "min":
		secs = 60
	case "seconds", "second", "sec", "s":
		secs = 1
	default:
		return TimeUnit{}, fmt.Errorf("%w: %q", ErrUnsupportedUnit, s)
	}

	epoch, err := parseEpochDate(parts[2])
	if err != nil {
		return TimeUnit{}, fmt.Errorf("%w: %q: %v", ErrUnsupportedUnit, s, err)
	}

	if len(parts) >= 4 {
		if err := parseEpochTime(parts[3], &epoch); err != nil {
			return TimeUnit{}, fmt.Errorf("%w: %q: %v", ErrUnsupportedUnit, s, err)
		}
	}

	return TimeUnit{SecondsPerStep: secs, Epoch: epoch}, nil
}

func parseEpochDate(s string) (DateTime, error) {
	fields := strings.Split(s, "-")
	if len(fields) != 3 {
		return DateTime{}, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	var vals [3]int
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return DateTime{}, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
		}
		vals[i] = v
	}
	return DateTime{Year: vals[0], Month: vals[1], Day: vals[2]}, nil
}

func parseEpochTime(s string, epoch *DateTime) error {
	fields := strings.Split(s, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return fmt.Errorf("expected HH:MM[:SS], got %q", s)
	}
	vals := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("expected HH:MM[:SS], got %q", s)
		}
		vals[i] = v
	}
	epoch.Hour = vals[0]
	epoch.Minute = vals[1]
	if len(vals) == 3 {
		epoch.Second = vals[2]
	}
	return nil
}

// secondsFromOrigin positions a DateTime on the calendar's absolute
// second axis.
func secondsFromOrigin(cal Calendar, dt DateTime) (float64, error) {
	days, err := daysFromOrigin(cal, dt.Year, dt.Month, dt.Day)
	if err != nil {
		return 0, err
	}
	return float64(days)*86400 +
		float64(dt.Hour)*3600 + float64(dt.Minute)*60 + float64(dt.Second), nil
}

// PartialDateToNumber converts a partial date to a numeric offset in the
// given reference unit. Year and month must both be present. A missing day
// resolves to the first of the month when startOfPeriod is true, otherwise
// to the month's final day under the active calendar.
func PartialDateToNumber(pdt PartialDateTime, unit string, cal Calendar, startOfPeriod bool) (float64, error) {
	if !pdt.Known.Has(FieldYear) || !pdt.Known.Has(FieldMonth) {
		return 0, fmt.Errorf("%w: year and month are required", ErrIncompleteDate)
	}

	tu, err := ParseUnit(unit)
	if err != nil {
		return 0, err
	}

	day := pdt.Day
	if !pdt.Known.Has(FieldDay) {
		if startOfPeriod {
			day = 1
		} else {
			day, err = LastDayOfMonth(pdt.Year, pdt.Month, cal)
			if err != nil {
				return 0, err
			}
		}
	}

	dt := DateTime{
		Year:  pdt.Year,
		Month: pdt.Month,
		Day:   day,
	}
	if pdt.Known.Has(FieldHour) {
		dt.Hour = pdt.Hour
	}
	if pdt.Known.Has(FieldMinute) {
		dt.Minute = pdt.Minute
	}
	if pdt.Known.Has(FieldSecond) {
		dt.Second = pdt.Second
	}

	target, err := secondsFromOrigin(cal, dt)
	if err != nil {
		return 0, err
	}
	epoch, err := secondsFromOrigin(cal, tu.Epoch)
	if err != nil {
		return 0, err
	}

	return (target - epoch) / tu.SecondsPerStep, nil
}

// NumberToDate converts a numeric time value in the given unit back to a
// calendar date and time of day, rounded to the nearest second.
func NumberToDate(value float64, unit string, cal Calendar) (DateTime, error) {
	tu, err := ParseUnit(unit)
	if err != nil {
		return DateTime{}, err
	}

	epoch, err := secondsFromOrigin(cal, tu.Epoch)
	if err != nil {
		return DateTime{}, err
	}

	total := epoch + value*tu.SecondsPerStep
	days := int64(math.Floor(total / 86400))
	secOfDay := int64(math.Round(total - float64(days)*86400))
	if secOfDay >= 86400 {
		days++
		secOfDay -= 86400
	}

	year, month, day, err := dateFromDays(cal, days)
	if err != nil {
		return DateTime{}, err
	}

	return DateTime{
		Year:   year,
		Month:  month,
		Day:    day,
		Hour:   int(secOfDay / 3600),
		Minute: int(secOfDay % 3600 / 60),
		Second: int(secOfDay % 60),
	}, nil
}

// StandardiseTimeUnit re-bases a numeric time value from one reference
// unit to another under the same calendar. A nil value passes through
// unchanged so callers can forward optional time fields directly.
func StandardiseTimeUnit(value *float64, oldUnit, newUnit string, cal Calendar) (*float64, error) {
	if value == nil {
		return nil, nil
	}

	oldTU, err := ParseUnit(oldUnit)
	if err != nil {
		return nil, err
	}
	newTU, err := ParseUnit(newUnit)
	if err != nil {
		return nil, err
	}

	oldEpoch, err := secondsFromOrigin(cal, oldTU.Epoch)
	if err != nil {
		return nil, err
	}
	newEpoch, err := secondsFromOrigin(cal, newTU.Epoch)
	if err != nil {
		return nil, err
	}

	converted := (*value*oldTU.SecondsPerStep + oldEpoch - newEpoch) / newTU.SecondsPerStep
	return &converted, nil
}
