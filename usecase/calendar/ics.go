package calendar

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fastygo/planner/domain"
)

const (
	icsDateLayout = "20060102"
	icsLineOctets = 75
)

var icsEscaper = strings.NewReplacer(
	"\\", "\\\\",
	";", "\\;",
	",", "\\,",
	"\r\n", "\\n",
	"\n", "\\n",
	"\r", "\\n",
)

// BuildTaskICS renders a task as a single all-day VEVENT on its due date.
func BuildTaskICS(t domain.Task, now time.Time) (string, error) {
	if t.DueDate.IsZero() {
		return "", domain.NewError(domain.ErrCodeInvalid, "task due date required for calendar export")
	}
	due := t.DueDate.In(time.UTC)
	end := due.AddDate(0, 0, 1)

	summary := strings.TrimSpace(t.Title)
	if subject := strings.TrimSpace(t.Subject); subject != "" {
		summary += " - " + subject
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Planner//Task Export//ES",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		fmt.Sprintf("UID:task-%d@planner", t.ID),
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"SUMMARY:" + icsEscaper.Replace(summary),
		"DTSTART;VALUE=DATE:" + due.Format(icsDateLayout),
		"DTEND;VALUE=DATE:" + end.Format(icsDateLayout),
	}
	if desc := strings.TrimSpace(t.Description); desc != "" {
		lines = append(lines, "DESCRIPTION:"+icsEscaper.Replace(desc))
	}
	if t.IsCompleted() {
		lines = append(lines, "STATUS:CONFIRMED")
	}
	if t.Reminder && t.ReminderTime != nil && !t.IsCompleted() {
		// the alarm fires relative to the all-day start at midnight
		lines = append(lines,
			"BEGIN:VALARM",
			"ACTION:DISPLAY",
			"DESCRIPTION:"+icsEscaper.Replace("Recordatorio: "+summary),
			fmt.Sprintf("TRIGGER:PT%dH%dM", t.ReminderTime.Hour, t.ReminderTime.Minute),
			"END:VALARM",
		)
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")

	var sb strings.Builder
	for _, line := range lines {
		writeFolded(&sb, line)
	}
	return sb.String(), nil
}

// writeFolded writes one content line, folding it into chunks of at most
// icsLineOctets with CRLF followed by a space. Runes are never split.
func writeFolded(sb *strings.Builder, line string) {
	limit := icsLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		sb.WriteString(line[:cut])
		sb.WriteString("\r\n ")
		line = line[cut:]
		limit = icsLineOctets - 1
	}
	sb.WriteString(line)
	sb.WriteString("\r\n")
}
