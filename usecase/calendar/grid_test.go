package calendar

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/dateutil"
)

func taskDue(id int64, due string) domain.Task {
	return domain.Task{ID: id, Title: "t", DueDate: dateutil.MustParseDate(due)}
}

func TestBuildMonthBucketsEveryDay(t *testing.T) {
	cases := []struct {
		ref    string
		days   int
		blanks int
	}{
		{"2024-01-15", 31, 1},
		{"2024-02-10", 29, 4},
		{"2023-02-10", 28, 3},
		{"2024-04-30", 30, 1},
		{"2024-09-01", 30, 0},
	}
	for _, tc := range cases {
		t.Run(tc.ref, func(t *testing.T) {
			ref := dateutil.MustParseDate(tc.ref)
			grid := BuildMonth(ref, ref, nil)
			assert.Len(t, grid.Days, tc.days)
			assert.Equal(t, tc.blanks, grid.LeadingBlanks)
			assert.Equal(t, 1, grid.Days[0].Date.Day)
			assert.Equal(t, tc.days, grid.Days[len(grid.Days)-1].Date.Day)
		})
	}
}

func TestBuildMonthPlacesEachTaskOnce(t *testing.T) {
	ref := dateutil.MustParseDate("2024-02-01")
	tasks := []domain.Task{
		taskDue(1, "2024-02-01"),
		taskDue(2, "2024-02-29"),
		taskDue(3, "2024-02-29"),
		taskDue(4, "2024-03-01"),
		taskDue(5, "2024-01-31"),
	}

	grid := BuildMonth(ref, dateutil.MustParseDate("2024-02-29"), tasks)

	placed := map[int64]int{}
	for _, day := range grid.Days {
		for _, task := range day.Tasks {
			placed[task.ID]++
			assert.True(t, task.DueDate.Equal(day.Date))
		}
	}
	assert.Equal(t, map[int64]int{1: 1, 2: 1, 3: 1}, placed)

	last := grid.Days[28]
	assert.True(t, last.IsToday)
	assert.Equal(t, []int64{2, 3}, []int64{last.Tasks[0].ID, last.Tasks[1].ID})
	assert.Equal(t, "febrero 2024", grid.Title)
}

func TestBuildWeek(t *testing.T) {
	ref := dateutil.MustParseDate("2024-01-31")
	grid := BuildWeek(ref, ref, []domain.Task{taskDue(1, "2024-02-03"), taskDue(2, "2024-02-04")})

	require.Len(t, grid.Days, 7)
	assert.Equal(t, "2024-01-28", grid.Days[0].Date.String())
	assert.Equal(t, time.Sunday, grid.Days[0].Date.Weekday())
	assert.Equal(t, "2024-02-03", grid.Days[6].Date.String())
	assert.True(t, grid.Days[3].IsToday)
	assert.Len(t, grid.Days[6].Tasks, 1)
	assert.Equal(t, "28 enero - 3 febrero 2024", grid.Title)
}

func TestNavigate(t *testing.T) {
	today := dateutil.MustParseDate("2024-06-10")
	jan31 := dateutil.MustParseDate("2024-01-31")

	assert.Equal(t, "2024-02-29", Navigate(jan31, today, ModeMonth, DirectionNext).String())
	assert.Equal(t, "2023-12-31", Navigate(jan31, today, ModeMonth, DirectionPrev).String())
	assert.Equal(t, "2024-02-07", Navigate(jan31, today, ModeWeek, DirectionNext).String())
	assert.Equal(t, "2024-01-24", Navigate(jan31, today, ModeWeek, DirectionPrev).String())
	assert.Equal(t, today, Navigate(jan31, today, ModeWeek, DirectionToday))
	assert.Equal(t, jan31, Navigate(jan31, today, ModeMonth, ""))
}

func TestParseModeAndDirection(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeMonth, mode)
	mode, err = ParseMode("Week")
	require.NoError(t, err)
	assert.Equal(t, ModeWeek, mode)
	_, err = ParseMode("year")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestBuildTaskICS(t *testing.T) {
	nine := dateutil.Clock{Hour: 9}
	task := domain.Task{
		ID: 42, Title: "Ensayo, final", Subject: "Historia", Description: "línea 1\nlínea 2",
		DueDate: dateutil.MustParseDate("2024-01-15"), Reminder: true, ReminderTime: &nine,
		Status: domain.StatusPending,
	}
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	ics, err := BuildTaskICS(task, now)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n"))
	assert.Contains(t, ics, "UID:task-42@planner\r\n")
	assert.Contains(t, ics, "SUMMARY:Ensayo\\, final - Historia\r\n")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20240115\r\n")
	assert.Contains(t, ics, "DTEND;VALUE=DATE:20240116\r\n")
	assert.Contains(t, ics, "DESCRIPTION:línea 1\\nlínea 2\r\n")
	assert.Contains(t, ics, "TRIGGER:PT9H0M\r\n")

	_, err = BuildTaskICS(domain.Task{ID: 1}, now)
	assert.Error(t, err)
}

func TestBuildTaskICSFoldsLongLines(t *testing.T) {
	task := domain.Task{
		ID: 7, Title: strings.Repeat("Revisión ", 12), Subject: "Química",
		Description: strings.Repeat("ñ", 100),
		DueDate:     dateutil.MustParseDate("2024-01-15"),
		Status:      domain.StatusPending,
	}

	ics, err := BuildTaskICS(task, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(ics, "END:VCALENDAR\r\n"))

	lines := strings.Split(strings.TrimSuffix(ics, "\r\n"), "\r\n")
	continued := 0
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 75, line)
		assert.True(t, utf8.ValidString(line), line)
		if strings.HasPrefix(line, " ") {
			continued++
		}
	}
	assert.GreaterOrEqual(t, continued, 3)

	unfolded := strings.ReplaceAll(ics, "\r\n ", "")
	assert.Contains(t, unfolded, "DESCRIPTION:"+strings.Repeat("ñ", 100)+"\r\n")
	assert.Contains(t, unfolded, "SUMMARY:"+strings.TrimSpace(task.Title)+" - Química\r\n")
}

func TestBuildTaskICSStatusPrecedesComponents(t *testing.T) {
	task := taskDue(3, "2024-01-15")
	task.Status = domain.StatusCompleted

	ics, err := BuildTaskICS(task, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	status := strings.Index(ics, "STATUS:CONFIRMED\r\n")
	require.Positive(t, status)
	assert.Less(t, status, strings.Index(ics, "END:VEVENT"))
	assert.NotContains(t, ics, "BEGIN:VALARM")
}
