package booking

import (
	"strings"
	"time"

	"github.com/iliyamo/spacehire/internal/apperr"
)

const (
	dateLayout = "2006-01-02"
	// endOfDay is added to local midnight to obtain the last instant of a day
	// for multi-day bookings (23:59:59.999).
	endOfDay = 24*time.Hour - time.Millisecond
	// MaxBookingDays caps the length of a multi-day booking.
	MaxBookingDays = 366
)

var clockLayouts = []string{"15:04", "15:04:05"}

// WindowRequest is the raw temporal part of a booking request.
type WindowRequest struct {
	StartDate string
	EndDate   string
	StartTime string
	EndTime   string
}

// Window is a resolved booking interval together with its billable hours.
// For multi-day windows StartTime and EndTime are empty.
type Window struct {
	Start         time.Time
	End           time.Time
	StartTime     string
	EndTime       string
	BillableHours int64
	MultiDay      bool
}

// ResolveWindow validates the request against now and normalises it into a
// Window. Single-day requests are resolved to time-of-day precision and
// require both times; multi-day requests cover whole days from local
// midnight of StartDate to the end of EndDate.
func ResolveWindow(req WindowRequest, now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	startDate := strings.TrimSpace(req.StartDate)
	endDate := strings.TrimSpace(req.EndDate)
	if startDate == "" || endDate == "" {
		return Window{}, apperr.Validation("start date and end date are required")
	}
	dayStart, err := time.ParseInLocation(dateLayout, startDate, loc)
	if err != nil {
		return Window{}, apperr.Validation("invalid start date %q, expected YYYY-MM-DD", startDate)
	}
	dayEnd, err := time.ParseInLocation(dateLayout, endDate, loc)
	if err != nil {
		return Window{}, apperr.Validation("invalid end date %q, expected YYYY-MM-DD", endDate)
	}
	if startDate == endDate {
		return resolveSingleDay(dayStart, req.StartTime, req.EndTime, now, loc)
	}
	return resolveMultiDay(dayStart, dayEnd, startDate, endDate, now.In(loc))
}

func resolveSingleDay(day time.Time, rawStart, rawEnd string, now time.Time, loc *time.Location) (Window, error) {
	rawStart, rawEnd = strings.TrimSpace(rawStart), strings.TrimSpace(rawEnd)
	if rawStart == "" || rawEnd == "" {
		return Window{}, apperr.Validation("start time and end time are required for single-day bookings")
	}
	start, err := atClock(day, rawStart, loc)
	if err != nil {
		return Window{}, apperr.Validation("invalid start time %q, expected HH:MM", rawStart)
	}
	end, err := atClock(day, rawEnd, loc)
	if err != nil {
		return Window{}, apperr.Validation("invalid end time %q, expected HH:MM", rawEnd)
	}
	if start.Before(now) || end.Before(now) {
		return Window{}, apperr.Validation("booking cannot start or end in the past")
	}
	if !start.Before(end) {
		return Window{}, apperr.Validation("end time must be after start time")
	}
	return Window{
		Start:         start,
		End:           end,
		StartTime:     rawStart,
		EndTime:       rawEnd,
		BillableHours: ceilHours(end.Sub(start)),
	}, nil
}

func resolveMultiDay(dayStart, dayEnd time.Time, startDate, endDate string, now time.Time) (Window, error) {
	today := now.Format(dateLayout)
	if startDate < today {
		return Window{}, apperr.Validation("start date cannot be in the past")
	}
	if endDate < today {
		return Window{}, apperr.Validation("end date cannot be in the past")
	}
	start := dayStart
	end := dayEnd.Add(endOfDay)
	if !start.Before(end) {
		return Window{}, apperr.Validation("end date must be after start date")
	}
	days := int64(end.Sub(start)/(24*time.Hour)) + 1
	if days > MaxBookingDays {
		return Window{}, apperr.Validation("booking cannot span more than %d days", MaxBookingDays)
	}
	return Window{
		Start:         start,
		End:           end,
		BillableHours: days * 24,
		MultiDay:      true,
	}, nil
}

func atClock(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	var lastErr error
	for _, layout := range clockLayouts {
		t, err := time.ParseInLocation(dateLayout+" "+layout, day.Format(dateLayout)+" "+clock, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func ceilHours(d time.Duration) int64 {
	h := int64(d / time.Hour)
	if d%time.Hour != 0 {
		h++
	}
	return h
}
