package transport

import (
	"strconv"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/dateutil"
)

type ChatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// CalendarQuery is the parsed query string of the calendar view.
type CalendarQuery struct {
	Mode   string
	Date   dateutil.Date
	Nav    string
	Filter domain.TaskFilter
}

// TaskFilterFromQuery reads ?search&priority&status&showCompleted. Completed
// tasks are shown unless showCompleted=false.
func TaskFilterFromQuery(args *fasthttp.Args) domain.TaskFilter {
	filter := domain.TaskFilter{
		Search:        string(args.Peek("search")),
		Priority:      string(args.Peek("priority")),
		Status:        string(args.Peek("status")),
		ShowCompleted: true,
	}
	if raw := string(args.Peek("showCompleted")); raw != "" {
		if show, err := strconv.ParseBool(raw); err == nil {
			filter.ShowCompleted = show
		}
	}
	return filter
}

func CalendarQueryFromArgs(args *fasthttp.Args) (CalendarQuery, error) {
	q := CalendarQuery{
		Mode:   string(args.Peek("mode")),
		Nav:    string(args.Peek("nav")),
		Filter: TaskFilterFromQuery(args),
	}
	if raw := string(args.Peek("date")); raw != "" {
		date, err := dateutil.ParseDate(raw)
		if err != nil {
			return q, domain.WrapError(domain.ErrCodeInvalid, "date must be YYYY-MM-DD", err)
		}
		q.Date = date
	}
	return q, nil
}

// IntArg returns the query value as an int, or fallback when absent or malformed.
func IntArg(args *fasthttp.Args, key string, fallback int) int {
	if v, err := strconv.Atoi(string(args.Peek(key))); err == nil {
		return v
	}
	return fallback
}
