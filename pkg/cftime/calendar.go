package cftime

import "fmt"

// Calendar identifies the day-count convention used by a dataset's time
// axis. Climate models commonly run on idealised calendars, so Gregorian
// leap-year rules cannot be assumed.
type Calendar string

const (
	Calendar360Day    Calendar = "360_day"
	Calendar365Day    Calendar = "365_day"
	CalendarNoLeap    Calendar = "noleap"
	CalendarGregorian Calendar = "gregorian"
	CalendarStandard  Calendar = "standard"
)

var noLeapCumulativeDays = [12]int64{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// daysFromOrigin returns the number of whole days between the calendar's
// year-zero origin and the given date. Dates before the origin yield
// negative values so differences remain correct either side of it.
func daysFromOrigin(cal Calendar, year, month, day int) (int64, error) {
	y := int64(year)
	m := int64(month)
	d := int64(day)

	switch cal {
	case Calendar360Day:
		return y*360 + (m-1)*30 + (d - 1), nil
	case Calendar365Day, CalendarNoLeap:
		return y*365 + noLeapCumulativeDays[m-1] + (d - 1), nil
	case CalendarGregorian, CalendarStandard:
		// Proleptic Gregorian, days since 0000-03-01 shifted so that
		// the value is comparable with a fixed origin.
		if m <= 2 {
			y--
			m += 12
		}
		era := y / 400
		if y < 0 && y%400 != 0 {
			era--
		}
		yoe := y - era*400
		doy := (153*(m-3)+2)/5 + d - 1
		doe := yoe*365 + yoe/4 - yoe/100 + doy
		return era*146097 + doe + 60, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCalendar, cal)
	}
}

// dateFromDays is the inverse of daysFromOrigin.
func dateFromDays(cal Calendar, days int64) (year, month, day int, err error) {
	switch cal {
	case Calendar360Day:
		y := floorDiv(days, 360)
		rem := days - y*360
		return int(y), int(rem/30) + 1, int(rem%30) + 1, nil
	case Calendar365Day, CalendarNoLeap:
		y := floorDiv(days, 365)
		rem := days - y*365
		m := 12
		for i := 1; i < 12; i++ {
			if rem < noLeapCumulativeDays[i] {
				m = i
				break
			}
		}
		return int(y), m, int(rem-noLeapCumulativeDays[m-1]) + 1, nil
	case CalendarGregorian, CalendarStandard:
		z := days - 60
		era := floorDiv(z, 146097)
		doe := z - era*146097
		yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
		y := yoe + era*400
		doy := doe - (365*yoe + yoe/4 - yoe/100)
		mp := (5*doy + 2) / 153
		d := doy - (153*mp+2)/5 + 1
		m := mp + 3
		if mp >= 10 {
			m = mp - 9
			y++
		}
		return int(y), int(m), int(d), nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrUnknownCalendar, cal)
	}
}

// LastDayOfMonth returns the day number of the final day in the given
// month. It is derived as the day before the first of the next month, so
// new calendars need no month-length table of their own.
func LastDayOfMonth(year, month int, cal Calendar) (int, error) {
	nextYear, nextMonth := year, month+1
	if nextMonth > 12 {
		nextYear++
		nextMonth = 1
	}

	first, err := daysFromOrigin(cal, year, month, 1)
	if err != nil {
		return 0, err
	}
	nextFirst, err := daysFromOrigin(cal, nextYear, nextMonth, 1)
	if err != nil {
		return 0, err
	}

	return int(nextFirst - first), nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
