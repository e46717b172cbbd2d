package calendar

import (
	"fmt"
	"strings"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/dateutil"
)

type Mode string

const (
	ModeMonth Mode = "month"
	ModeWeek  Mode = "week"
)

type Direction string

const (
	DirectionPrev  Direction = "prev"
	DirectionNext  Direction = "next"
	DirectionToday Direction = "today"
)

// WeekdayLabels heads the grid columns; weeks start on Sunday.
var WeekdayLabels = [7]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

var monthNames = [12]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

type Day struct {
	Date    dateutil.Date `json:"date"`
	IsToday bool          `json:"isToday"`
	Tasks   []domain.Task `json:"tasks"`
}

// Grid is a rendered calendar page. In month mode the first LeadingBlanks cells
// of the first row are empty so Days[0] lands under its weekday.
type Grid struct {
	Mode          Mode          `json:"mode"`
	Reference     dateutil.Date `json:"reference"`
	Title         string        `json:"title"`
	Weekdays      [7]string     `json:"weekdays"`
	LeadingBlanks int           `json:"leadingBlanks"`
	Days          []Day         `json:"days"`
}

func BuildMonth(ref, today dateutil.Date, tasks []domain.Task) Grid {
	buckets := bucketByDueDate(tasks)
	n := dateutil.DaysInMonth(ref.Year, ref.Month)
	days := make([]Day, 0, n)
	for d := 1; d <= n; d++ {
		date := dateutil.NewDate(ref.Year, ref.Month, d)
		days = append(days, newDay(date, today, buckets))
	}
	return Grid{
		Mode:          ModeMonth,
		Reference:     ref,
		Title:         monthTitle(ref),
		Weekdays:      WeekdayLabels,
		LeadingBlanks: int(dateutil.FirstWeekdayOfMonth(ref.Year, ref.Month)),
		Days:          days,
	}
}

func BuildWeek(ref, today dateutil.Date, tasks []domain.Task) Grid {
	buckets := bucketByDueDate(tasks)
	week := dateutil.WeekDates(ref)
	days := make([]Day, 0, len(week))
	for _, date := range week {
		days = append(days, newDay(date, today, buckets))
	}
	return Grid{
		Mode:      ModeWeek,
		Reference: ref,
		Title:     weekTitle(week[0], week[6]),
		Weekdays:  WeekdayLabels,
		Days:      days,
	}
}

// Navigate moves the reference date one page. Week pages move by seven days;
// month pages keep the day of month where the target month allows it.
func Navigate(ref, today dateutil.Date, mode Mode, dir Direction) dateutil.Date {
	step := 0
	switch dir {
	case DirectionToday:
		return today
	case DirectionPrev:
		step = -1
	case DirectionNext:
		step = 1
	default:
		return ref
	}
	if mode == ModeWeek {
		return ref.AddDays(7 * step)
	}
	return ref.AddMonths(step)
}

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeMonth:
		return ModeMonth, nil
	case ModeWeek:
		return ModeWeek, nil
	}
	return "", domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("unknown calendar mode %q", raw))
}

func ParseDirection(raw string) (Direction, error) {
	switch dir := Direction(strings.ToLower(strings.TrimSpace(raw))); dir {
	case "", DirectionPrev, DirectionNext, DirectionToday:
		return dir, nil
	}
	return "", domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("unknown calendar navigation %q", raw))
}

func bucketByDueDate(tasks []domain.Task) map[dateutil.Date][]domain.Task {
	out := make(map[dateutil.Date][]domain.Task)
	for _, t := range tasks {
		if t.DueDate.IsZero() {
			continue
		}
		out[t.DueDate] = append(out[t.DueDate], t)
	}
	return out
}

func newDay(date, today dateutil.Date, buckets map[dateutil.Date][]domain.Task) Day {
	tasks := buckets[date]
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return Day{Date: date, IsToday: date.Equal(today), Tasks: tasks}
}

func monthTitle(d dateutil.Date) string {
	return fmt.Sprintf("%s %d", monthNames[d.Month-1], d.Year)
}

func weekTitle(first, last dateutil.Date) string {
	if first.Month == last.Month {
		return fmt.Sprintf("%d - %d %s %d", first.Day, last.Day, monthNames[last.Month-1], last.Year)
	}
	return fmt.Sprintf("%d %s - %d %s %d", first.Day, monthNames[first.Month-1], last.Day, monthNames[last.Month-1], last.Year)
}
