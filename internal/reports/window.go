package reports

import (
	"fmt"
	"strings"
	"time"

	"boutique/internal/domain"
)

type Period string

const (
	PeriodToday     Period = "today"
	PeriodYesterday Period = "yesterday"
	PeriodWeek      Period = "week"
	PeriodMonth     Period = "month"
	PeriodAll       Period = "all"
)

// Window is a half-open time range [From, To). A zero bound is open.
type Window struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// PeriodWindow resolves a named period relative to now. Day boundaries are
// taken in loc. Week and month reach back from now and stay open-ended.
func PeriodWindow(p Period, now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	switch Period(strings.ToLower(string(p))) {
	case PeriodToday:
		return Window{From: midnight, To: midnight.AddDate(0, 0, 1)}, nil
	case PeriodYesterday:
		return Window{From: midnight.AddDate(0, 0, -1), To: midnight}, nil
	case PeriodWeek:
		return Window{From: local.AddDate(0, 0, -7)}, nil
	case PeriodMonth:
		return Window{From: local.AddDate(0, -1, 0)}, nil
	case PeriodAll, "":
		return Window{}, nil
	}
	return Window{}, domain.Invalidf("unknown period %q", p)
}

// ParseBound accepts RFC 3339 or a bare YYYY-MM-DD date in loc.
func ParseBound(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, domain.Invalidf("bad date %q", s)
}

// Resolve picks an explicit from/to range when either is given, the named
// period otherwise. A bare "to" date includes that whole day.
func Resolve(period, from, to string, now time.Time, loc *time.Location) (Window, error) {
	if from == "" && to == "" {
		return PeriodWindow(Period(period), now, loc)
	}
	f, err := ParseBound(from, loc)
	if err != nil {
		return Window{}, err
	}
	t, err := ParseBound(to, loc)
	if err != nil {
		return Window{}, err
	}
	if _, derr := time.Parse(time.DateOnly, strings.TrimSpace(to)); derr == nil {
		t = t.AddDate(0, 0, 1)
	}
	if !f.IsZero() && !t.IsZero() && !f.Before(t) {
		return Window{}, fmt.Errorf("%w: from must be before to", domain.ErrInvalid)
	}
	return Window{From: f, To: t}, nil
}
