package tracking

import "time"

// =============================================================================
// GERMAN PUBLIC HOLIDAYS
// =============================================================================

// Easter returns Easter Sunday for the given year using the
// Meeus/Jones/Butcher algorithm. Valid for Gregorian years 1583-4099;
// results outside that range are undefined and not checked here.
func Easter(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	return NewDate(year, time.Month(month), day)
}

// HolidaysForYear returns the nine nationwide German public holidays for a
// year, mapping date to German name. Regional holidays are not included.
func HolidaysForYear(year int) map[Date]string {
	holidays := map[Date]string{
		NewDate(year, time.January, 1):   "Neujahr",
		NewDate(year, time.May, 1):       "Tag der Arbeit",
		NewDate(year, time.October, 3):   "Tag der Deutschen Einheit",
		NewDate(year, time.December, 25): "1. Weihnachtstag",
		NewDate(year, time.December, 26): "2. Weihnachtstag",
	}

	easter := Easter(year)
	holidays[easter.AddDays(-2)] = "Karfreitag"
	holidays[easter.AddDays(1)] = "Ostermontag"
	holidays[easter.AddDays(39)] = "Christi Himmelfahrt"
	holidays[easter.AddDays(50)] = "Pfingstmontag"

	return holidays
}

// IsHoliday reports whether the date is a nationwide German public holiday,
// returning the German name when it is.
func IsHoliday(d Date) (bool, string) {
	name, ok := HolidaysForYear(d.Year())[d]
	return ok, name
}

// =============================================================================
// HOLIDAY CALENDAR - Caller-owned per-year memo
// =============================================================================

// HolidayCalendar memoizes HolidaysForYear per year. It exists so callers
// that scan long spans do not rebuild the table per day. The memo is owned
// by the caller; there is no package-level mutable state. Not safe for
// concurrent use.
type HolidayCalendar struct {
	years map[int]map[Date]string
}

func NewHolidayCalendar() *HolidayCalendar {
	return &HolidayCalendar{years: make(map[int]map[Date]string)}
}

func (c *HolidayCalendar) tableFor(year int) map[Date]string {
	if table, ok := c.years[year]; ok {
		return table
	}
	table := HolidaysForYear(year)
	c.years[year] = table
	return table
}

// IsHoliday is the memoized equivalent of the package-level IsHoliday.
func (c *HolidayCalendar) IsHoliday(d Date) (bool, string) {
	name, ok := c.tableFor(d.Year())[d]
	return ok, name
}

// Holidays returns the memoized holiday table for a year.
func (c *HolidayCalendar) Holidays(year int) map[Date]string {
	return c.tableFor(year)
}
