package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
)

// ParseGranularity разбирает шаг группировки. Пустая строка означает день.
func ParseGranularity(s string) (domain.Granularity, error) {
	switch g := domain.Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return domain.GranularityDay, nil
	case domain.GranularityHour, domain.GranularityDay, domain.GranularityWeek, domain.GranularityYear:
		return g, nil
	}

	return "", e.NewValidationError("granularity", e.ErrInvalidGranularity.Error())
}

// BucketLabel возвращает метку интервала, в который попадает момент t.
func BucketLabel(t time.Time, g domain.Granularity, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}

	switch g {
	case domain.GranularityHour:
		return t.Format("2006-01-02 15:00")
	case domain.GranularityWeek:
		return fmt.Sprintf("%d-W%02d", t.Year(), sundayWeek(t))
	case domain.GranularityYear:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}

// sundayWeek — номер недели года, недели начинаются с воскресенья.
// Дни до первого воскресенья относятся к неделе 00.
func sundayWeek(t time.Time) int {
	yday := t.YearDay() - 1
	return (yday + 7 - int(t.Weekday())) / 7
}

// CountByBucket сворачивает счётчики по началам периодов в метки интервалов шага g.
// Начала периодов уже в местном времени, поэтому часовой пояс повторно не применяется.
func CountByBucket(counts []domain.BucketCount, g domain.Granularity) (map[string]int64, int64) {
	result := make(map[string]int64)
	var total int64
	for _, c := range counts {
		result[BucketLabel(c.Start, g, nil)] += c.Count
		total += c.Count
	}

	return result, total
}
