package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var dateLayouts = []string{dateLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01"}

var ErrInvalidYearMonth = errors.New("invalid year-month, expected YYYY-MM")

// Date is a calendar date without time of day. The zero value means
// "no date" and never falls inside any month.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD, RFC3339 timestamps and bare YYYY-MM
// (first day of the month).
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// InMonth reports whether the date falls in the given calendar month.
func (d Date) InMonth(ym YearMonth) bool {
	if d.IsZero() || ym.IsZero() {
		return false
	}
	return d.Year() == ym.Year && d.Month() == ym.Month
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails on content: unparsable dates decode as the
// zero Date, the same way the backend's rows are rendered as "no date".
func (d *Date) UnmarshalJSON(b []byte) error {
	*d = Date{}
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
	}
	return nil
}

// YearMonth selects a calendar month. The zero value selects nothing,
// which filters treat as "all months".
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses "YYYY-MM". An empty string yields the zero value.
func ParseYearMonth(s string) (YearMonth, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return YearMonth{}, nil
	}
	parts := strings.Split(s, "-")
	if len(parts) != 2 || len(parts[0]) != 4 {
		return YearMonth{}, ErrInvalidYearMonth
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return YearMonth{}, ErrInvalidYearMonth
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return YearMonth{}, ErrInvalidYearMonth
	}
	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

func (ym YearMonth) String() string {
	if ym.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) MarshalJSON() ([]byte, error) {
	if ym.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ym.String() + `"`), nil
}

func (ym *YearMonth) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidYearMonth
	}
	parsed, err := ParseYearMonth(s)
	if err != nil {
		return err
	}
	*ym = parsed
	return nil
}
