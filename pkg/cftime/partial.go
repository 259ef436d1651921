package cftime

import (
	"fmt"
	"strconv"
)

var (
	ErrInvalidDateFormat = fmt.Errorf("invalid date format")
	ErrIncompleteDate    = fmt.Errorf("incomplete date")
	ErrUnknownCalendar   = fmt.Errorf("unknown calendar")
	ErrUnsupportedUnit   = fmt.Errorf("unsupported time unit")
)

// Fields records which components of a PartialDateTime are present.
type Fields uint8

const (
	FieldYear Fields = 1 << iota
	FieldMonth
	FieldDay
	FieldHour
	FieldMinute
	FieldSecond
)

func (f Fields) Has(field Fields) bool {
	return f&field != 0
}

// PartialDateTime is a calendar date with any subset of its components
// known. Submissions encode file ranges as YYYYMM or YYYYMMDD strings, so
// a full timestamp is the exception rather than the rule.
type PartialDateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int

	Known Fields
}

func YearMonth(year, month int) PartialDateTime {
	return PartialDateTime{
		Year:  year,
		Month: month,
		Known: FieldYear | FieldMonth,
	}
}

func YearMonthDay(year, month, day int) PartialDateTime {
	return PartialDateTime{
		Year:  year,
		Month: month,
		Day:   day,
		Known: FieldYear | FieldMonth | FieldDay,
	}
}

// ParsePartialDate accepts exactly YYYYMM or YYYYMMDD strings.
func ParsePartialDate(s string) (PartialDateTime, error) {
	if len(s) != 6 && len(s) != 8 {
		return PartialDateTime{}, fmt.Errorf(
			"%w: %q is not a YYYYMM or YYYYMMDD string", ErrInvalidDateFormat, s)
	}

	year, err := strconv.Atoi(s[0:4])
	if err != nil {
		return PartialDateTime{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}
	month, err := strconv.Atoi(s[4:6])
	if err != nil || month < 1 || month > 12 {
		return PartialDateTime{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
	}

	pdt := YearMonth(year, month)

	if len(s) == 8 {
		day, err := strconv.Atoi(s[6:8])
		if err != nil || day < 1 || day > 31 {
			return PartialDateTime{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, s)
		}
		pdt.Day = day
		pdt.Known |= FieldDay
	}

	return pdt, nil
}
