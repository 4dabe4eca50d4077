package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/araddon/dateparse"
)

const dateOnly = "2006-01-02"

// FilterParams — сырые значения фильтров из запроса.
type FilterParams struct {
	StartDate  string
	EndDate    string
	CategoryID string
	CustomerID string
	AdminID    string
}

// ParseFilter разбирает фильтры покупок. Пустые значения пропускаются.
// Дата без времени в end_date включает весь день.
func ParseFilter(p FilterParams, loc *time.Location) (*domain.PurchaseFilter, error) {
	if loc == nil {
		loc = time.UTC
	}

	v := &e.ValidationError{}
	filter := &domain.PurchaseFilter{}

	if s := strings.TrimSpace(p.StartDate); s != "" {
		t, err := ParseDateBound(s, loc, false)
		if err != nil {
			v.Add("start_date", "is not a valid date")
		} else {
			filter.StartDate = &t
		}
	}

	if s := strings.TrimSpace(p.EndDate); s != "" {
		t, err := ParseDateBound(s, loc, true)
		if err != nil {
			v.Add("end_date", "is not a valid date")
		} else {
			filter.EndDate = &t
		}
	}

	filter.CategoryID = parseID(v, "category_id", p.CategoryID)
	filter.CustomerID = parseID(v, "customer_id", p.CustomerID)
	filter.AdminID = parseID(v, "admin_id", p.AdminID)

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	return filter, nil
}

// ParseDateBound разбирает дату или момент времени.
// Для даты без времени возвращает начало дня либо, при endOfDay, его последнюю наносекунду.
func ParseDateBound(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if d, err := time.ParseInLocation(dateOnly, s, loc); err == nil {
		if endOfDay {
			return d.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return d, nil
	}

	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, e.Wrap(e.ErrInvalidDate.Error(), err)
	}

	return t, nil
}

// DayRange возвращает границы календарного дня [start, end) в заданной зоне.
func DayRange(day time.Time, loc *time.Location) (time.Time, time.Time) {
	day = day.In(loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// ParseDay разбирает дату отчёта. Пустая строка означает вчера.
func ParseDay(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		start, _ := DayRange(now, loc)
		return start.AddDate(0, 0, -1), nil
	}

	t, err := ParseDateBound(s, loc, false)
	if err != nil {
		return time.Time{}, e.NewValidationError("date", "is not a valid date")
	}

	start, _ := DayRange(t, loc)
	return start, nil
}

func parseID(v *e.ValidationError, field, raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		v.Add(field, "must be a positive integer")
		return nil
	}

	return &id
}
