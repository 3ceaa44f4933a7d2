package weather

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date and rejects impossible calendar days (e.g. Feb 30)
// instead of normalizing them the way time.Date does.
func NewDate(year int, month time.Month, day int) (Date, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, fmt.Errorf("invalid calendar date %04d-%02d-%02d", year, int(month), day)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses an ISO date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// ParseDateCode parses an 8-digit YYYYMMDD code as emitted by NASA POWER.
func ParseDateCode(code string) (Date, error) {
	if len(code) != 8 {
		return Date{}, fmt.Errorf("invalid date code %q", code)
	}
	year, err := strconv.Atoi(code[0:4])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date code %q: %w", code, err)
	}
	month, err := strconv.Atoi(code[4:6])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date code %q: %w", code, err)
	}
	day, err := strconv.Atoi(code[6:8])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date code %q: %w", code, err)
	}
	d, err := NewDate(year, time.Month(month), day)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date code %q: %w", code, err)
	}
	return d, nil
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// SameCalendarDay reports whether d and o share month and day-of-month,
// ignoring the year.
func (d Date) SameCalendarDay(o Date) bool {
	return d.Month == o.Month && d.Day == o.Day
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// DailyRecord is one calendar day of observations at a coordinate.
type DailyRecord struct {
	Date          Date    `json:"date"`
	Temperature   float64 `json:"temperature"`   // °C
	Precipitation float64 `json:"precipitation"` // mm/day
	WindSpeed     float64 `json:"windSpeed"`     // m/s
}

// DailySeries is an ascending, duplicate-free sequence of daily records for
// one coordinate. Gaps are allowed.
type DailySeries []DailyRecord

// NewDailySeries orders records by date and drops any record whose date was
// already seen; the first occurrence wins.
func NewDailySeries(records []DailyRecord) DailySeries {
	series := make(DailySeries, len(records))
	copy(series, records)
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	out := series[:0]
	for i, r := range series {
		if i > 0 && r.Date == out[len(out)-1].Date {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SameCalendarDay returns the records whose month and day match target,
// preserving series order.
func (s DailySeries) SameCalendarDay(target Date) []DailyRecord {
	var matched []DailyRecord
	for _, r := range s {
		if r.Date.SameCalendarDay(target) {
			matched = append(matched, r)
		}
	}
	return matched
}

// VariableStats summarizes one variable over the matched records.
// Min, Max and Avg are nil together when no record matched.
type VariableStats struct {
	Min          *float64      `json:"min"`
	Max          *float64      `json:"max"`
	Avg          *float64      `json:"avg"`
	Distribution *Distribution `json:"distribution"`
	Samples      []float64     `json:"samples"`
}

// ForecastResult is the climatology for one coordinate and calendar day.
type ForecastResult struct {
	Temperature   VariableStats `json:"temperature"`
	Precipitation VariableStats `json:"precipitation"`
	Wind          VariableStats `json:"wind"`
}
