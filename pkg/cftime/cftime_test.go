package cftime

import (
	"errors"
	"math"
	"testing"
)

func TestParsePartialDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    PartialDateTime
		wantErr bool
	}{
		{
			name:  "yyyymm",
			input: "201408",
			want:  YearMonth(2014, 8),
		},
		{
			name:  "yyyymmdd",
			input: "20140801",
			want:  YearMonthDay(2014, 8, 1),
		},
		{
			name:    "yyyy rejected",
			input:   "2014",
			wantErr: true,
		},
		{
			name:    "empty rejected",
			input:   "",
			wantErr: true,
		},
		{
			name:    "non-numeric rejected",
			input:   "2014ab",
			wantErr: true,
		},
		{
			name:    "month out of range",
			input:   "201413",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePartialDate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDateFormat) {
					t.Fatalf("ParsePartialDate(%q) error = %v, want ErrInvalidDateFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePartialDate(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePartialDate(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLastDayOfMonth(t *testing.T) {
	tests := []struct {
		name     string
		year     int
		month    int
		calendar Calendar
		want     int
	}{
		{"gregorian october", 2016, 10, CalendarGregorian, 31},
		{"360_day october", 2016, 10, Calendar360Day, 30},
		{"360_day february", 2016, 2, Calendar360Day, 30},
		{"gregorian february", 2015, 2, CalendarGregorian, 28},
		{"gregorian leap february", 2016, 2, CalendarGregorian, 29},
		{"360_day december", 2016, 12, Calendar360Day, 30},
		{"gregorian december", 2016, 12, CalendarGregorian, 31},
		{"365_day february", 2016, 2, Calendar365Day, 28},
		{"standard leap february", 2000, 2, CalendarStandard, 29},
		{"gregorian century non-leap", 1900, 2, CalendarGregorian, 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LastDayOfMonth(tt.year, tt.month, tt.calendar)
			if err != nil {
				t.Fatalf("LastDayOfMonth(%d, %d, %q) unexpected error: %v",
					tt.year, tt.month, tt.calendar, err)
			}
			if got != tt.want {
				t.Errorf("LastDayOfMonth(%d, %d, %q) = %d, want %d",
					tt.year, tt.month, tt.calendar, got, tt.want)
			}
		})
	}

	if _, err := LastDayOfMonth(2016, 2, Calendar("julian")); !errors.Is(err, ErrUnknownCalendar) {
		t.Errorf("unknown calendar error = %v, want ErrUnknownCalendar", err)
	}
}

func TestPartialDateToNumber(t *testing.T) {
	const unit = "days since 2016-08-20"

	tests := []struct {
		name          string
		pdt           PartialDateTime
		calendar      Calendar
		startOfPeriod bool
		want          float64
	}{
		{
			name:          "year month day",
			pdt:           YearMonthDay(2016, 8, 22),
			calendar:      CalendarGregorian,
			startOfPeriod: true,
			want:          2.0,
		},
		{
			name:          "year month start of period",
			pdt:           YearMonth(2016, 8),
			calendar:      CalendarGregorian,
			startOfPeriod: true,
			want:          -19.0,
		},
		{
			name:          "year month end of period",
			pdt:           YearMonth(2016, 8),
			calendar:      CalendarGregorian,
			startOfPeriod: false,
			want:          11.0,
		},
		{
			name:          "year month end of period 360_day",
			pdt:           YearMonth(2016, 8),
			calendar:      Calendar360Day,
			startOfPeriod: false,
			want:          10.0,
		},
		{
			name: "full date time",
			pdt: PartialDateTime{
				Year: 2016, Month: 8, Day: 22,
				Hour: 14, Minute: 42, Second: 11,
				Known: FieldYear | FieldMonth | FieldDay |
					FieldHour | FieldMinute | FieldSecond,
			},
			calendar:      CalendarGregorian,
			startOfPeriod: true,
			want:          2.6126273148148148,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PartialDateToNumber(tt.pdt, unit, tt.calendar, tt.startOfPeriod)
			if err != nil {
				t.Fatalf("PartialDateToNumber unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PartialDateToNumber = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPartialDateToNumberIncomplete(t *testing.T) {
	yearOnly := PartialDateTime{Year: 2016, Known: FieldYear}
	_, err := PartialDateToNumber(yearOnly, "days since 2016-08-20", CalendarGregorian, true)
	if !errors.Is(err, ErrIncompleteDate) {
		t.Errorf("year-only error = %v, want ErrIncompleteDate", err)
	}
}

func TestStandardiseTimeUnit(t *testing.T) {
	t.Run("same units", func(t *testing.T) {
		unit := "days since 2000-01-01"
		value := 3.14159
		got, err := StandardiseTimeUnit(&value, unit, unit, Calendar360Day)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(*got-value) > 1e-9 {
			t.Errorf("got %v, want %v", *got, value)
		}
	})

	t.Run("different units", func(t *testing.T) {
		value := 33.14159
		got, err := StandardiseTimeUnit(&value,
			"days since 2000-01-01", "days since 2000-02-01", Calendar360Day)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(*got-3.14159) > 1e-5 {
			t.Errorf("got %v, want 3.14159", *got)
		}
	})

	t.Run("days to hours", func(t *testing.T) {
		value := 2.0
		got, err := StandardiseTimeUnit(&value,
			"days since 2000-01-01", "hours since 2000-01-01", Calendar360Day)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(*got-48.0) > 1e-9 {
			t.Errorf("got %v, want 48", *got)
		}
	})

	t.Run("nil passes through", func(t *testing.T) {
		unit := "days since 2000-01-01"
		got, err := StandardiseTimeUnit(nil, unit, unit, Calendar360Day)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})
}

func TestNumberToDate(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     string
		calendar Calendar
		want     DateTime
	}{
		{
			name:     "one 360_day year",
			value:    360.0,
			unit:     "days since 1950-01-01",
			calendar: Calendar360Day,
			want:     DateTime{Year: 1951, Month: 1, Day: 1},
		},
		{
			name:     "360 gregorian days is not a year",
			value:    360.0,
			unit:     "days since 1950-01-01",
			calendar: CalendarGregorian,
			want:     DateTime{Year: 1950, Month: 12, Day: 27},
		},
		{
			name:     "fractional day",
			value:    1.5,
			unit:     "days since 1950-01-01",
			calendar: Calendar360Day,
			want:     DateTime{Year: 1950, Month: 1, Day: 2, Hour: 12},
		},
		{
			name:     "hours unit",
			value:    36.0,
			unit:     "hours since 1950-01-01",
			calendar: CalendarGregorian,
			want:     DateTime{Year: 1950, Month: 1, Day: 2, Hour: 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NumberToDate(tt.value, tt.unit, tt.calendar)
			if err != nil {
				t.Fatalf("NumberToDate unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NumberToDate(%v, %q, %q) = %+v, want %+v",
					tt.value, tt.unit, tt.calendar, got, tt.want)
			}
		})
	}
}

func TestParseUnitErrors(t *testing.T) {
	for _, bad := range []string{
		"",
		"days",
		"fortnights since 1950-01-01",
		"days until 1950-01-01",
		"days since yesterday",
	} {
		if _, err := ParseUnit(bad); !errors.Is(err, ErrUnsupportedUnit) {
			t.Errorf("ParseUnit(%q) error = %v, want ErrUnsupportedUnit", bad, err)
		}
	}
}

func TestCalendarRoundTrip(t *testing.T) {
	for _, cal := range []Calendar{Calendar360Day, Calendar365Day, CalendarGregorian} {
		for _, days := range []int64{-400, -1, 0, 59, 60, 365, 146097, 712224} {
			y, m, d, err := dateFromDays(cal, days)
			if err != nil {
				t.Fatalf("dateFromDays(%q, %d) unexpected error: %v", cal, days, err)
			}
			back, err := daysFromOrigin(cal, y, m, d)
			if err != nil {
				t.Fatalf("daysFromOrigin(%q, %d, %d, %d) unexpected error: %v", cal, y, m, d, err)
			}
			if back != days {
				t.Errorf("%q: %d -> %d-%02d-%02d -> %d", cal, days, y, m, d, back)
			}
		}
	}
}
