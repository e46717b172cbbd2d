package handler

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/clock"
	"github.com/fastygo/planner/pkg/httpcontext"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/repository/memory"
	calendarUC "github.com/fastygo/planner/usecase/calendar"
	chatUC "github.com/fastygo/planner/usecase/chat"
	taskUC "github.com/fastygo/planner/usecase/task"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Meta   struct {
		Fields map[string]string `json:"fields"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	return env
}

func newRequest(method, body, owner string, params map[string]string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	if owner != "" {
		ctx.SetUserValue(httpcontext.UserValueOwnerID, owner)
	}
	for k, v := range params {
		ctx.SetUserValue(k, v)
	}
	return ctx
}

type fixture struct {
	tasks    *TaskHandler
	calendar *CalendarHandler
	clock    *clock.Fake
}

func newFixture() fixture {
	clk := clock.NewFake(time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC))
	ids := repository.NewIDSequence(clk.Now)
	uc := taskUC.New(memory.NewTaskRepository(ids), nil, nil,
		taskUC.WithClock(clk),
		taskUC.WithLocation(time.UTC),
		taskUC.WithIDSequence(ids),
	)
	adapter := httpcontext.NewAdapter(time.Second)
	return fixture{
		tasks:    NewTaskHandler(uc, 7, adapter, nil),
		calendar: NewCalendarHandler(calendarUC.New(uc, nil, clk, time.UTC, nil), adapter, nil),
		clock:    clk,
	}
}

const essay = `{"title":"Ensayo","subject":"Historia","dueDate":"2024-01-20","estimatedHours":3,"priority":"high"}`

func (f fixture) create(t *testing.T, body string) domain.Task {
	t.Helper()
	ctx := newRequest(fasthttp.MethodPost, body, "u1", nil)
	f.tasks.Create(ctx)
	require.Equal(t, fasthttp.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var task domain.Task
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &task))
	return task
}

func TestTaskHandler_CreateAndList(t *testing.T) {
	f := newFixture()
	created := f.create(t, essay)
	assert.NotZero(t, created.ID)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, "2024-01-15", created.CreatedAt.String())

	ctx := newRequest(fasthttp.MethodGet, "", "u1", nil)
	f.tasks.List(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var tasks []domain.Task
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &tasks))
	assert.Len(t, tasks, 1)
	assert.NotEmpty(t, ctx.Response.Header.Peek("X-Request-ID"))
}

func TestTaskHandler_ValidationFields(t *testing.T) {
	f := newFixture()
	ctx := newRequest(fasthttp.MethodPost, `{"title":" ","estimatedHours":0}`, "u1", nil)
	f.tasks.Create(ctx)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	env := decodeEnvelope(t, ctx)
	assert.Equal(t, string(domain.ErrCodeInvalid), env.Code)
	assert.Contains(t, env.Meta.Fields, "title")
	assert.Contains(t, env.Meta.Fields, "estimatedHours")
}

func TestTaskHandler_MalformedBody(t *testing.T) {
	f := newFixture()
	ctx := newRequest(fasthttp.MethodPost, `{"title":`, "u1", nil)
	f.tasks.Create(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestTaskHandler_RequiresOwner(t *testing.T) {
	f := newFixture()
	ctx := newRequest(fasthttp.MethodGet, "", "", nil)
	f.tasks.List(ctx)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestTaskHandler_NotFoundAndBadID(t *testing.T) {
	f := newFixture()

	ctx := newRequest(fasthttp.MethodGet, "", "u1", map[string]string{"id": "42"})
	f.tasks.Get(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.Equal(t, string(domain.ErrCodeNotFound), decodeEnvelope(t, ctx).Code)

	ctx = newRequest(fasthttp.MethodDelete, "", "u1", map[string]string{"id": "abc"})
	f.tasks.Delete(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestTaskHandler_ForeignTaskIsNotFound(t *testing.T) {
	f := newFixture()
	created := f.create(t, essay)

	ctx := newRequest(fasthttp.MethodPost, "", "u2", map[string]string{"id": jsonID(created.ID)})
	f.tasks.Toggle(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestTaskHandler_ToggleAndDelete(t *testing.T) {
	f := newFixture()
	created := f.create(t, essay)
	params := map[string]string{"id": jsonID(created.ID)}

	ctx := newRequest(fasthttp.MethodPost, "", "u1", params)
	f.tasks.Toggle(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var toggled domain.Task
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &toggled))
	assert.Equal(t, domain.StatusCompleted, toggled.Status)
	require.NotNil(t, toggled.CompletedAt)

	ctx = newRequest(fasthttp.MethodDelete, "", "u1", params)
	f.tasks.Delete(ctx)
	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())

	ctx = newRequest(fasthttp.MethodDelete, "", "u1", params)
	f.tasks.Delete(ctx)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestTaskHandler_UpdateRejectsMismatchedID(t *testing.T) {
	f := newFixture()
	created := f.create(t, essay)

	ctx := newRequest(fasthttp.MethodPut, `{"id":7,"title":"x"}`, "u1", map[string]string{"id": jsonID(created.ID)})
	f.tasks.Update(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestTaskHandler_ExportImport(t *testing.T) {
	f := newFixture()
	f.create(t, essay)

	ctx := newRequest(fasthttp.MethodGet, "", "u1", nil)
	f.tasks.Export(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Header.Peek("Content-Disposition")), "tareas_academicas_2024-01-15.json")
	doc := append([]byte(nil), ctx.Response.Body()...)

	ctx = newRequest(fasthttp.MethodPost, string(doc), "u2", nil)
	f.tasks.Import(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var report taskUC.ImportReport
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &report))
	assert.Len(t, report.Imported, 1)
	assert.Empty(t, report.Rejected)

	ctx = newRequest(fasthttp.MethodPost, `{"not":"a list"}`, "u2", nil)
	f.tasks.Import(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestTaskHandler_StatsHonoursFilter(t *testing.T) {
	f := newFixture()
	f.create(t, essay)
	f.create(t, `{"title":"Laboratorio","subject":"Química","dueDate":"2024-02-20","estimatedHours":2,"priority":"low"}`)

	ctx := newRequest(fasthttp.MethodGet, "", "u1", nil)
	ctx.QueryArgs().Set("priority", "high")
	f.tasks.Stats(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var stats domain.TaskStats
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &stats))
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, 3, stats.TotalEstimatedHours)
}

func TestCalendarHandler_MonthView(t *testing.T) {
	f := newFixture()
	f.create(t, essay)

	ctx := newRequest(fasthttp.MethodGet, "", "u1", nil)
	ctx.QueryArgs().Set("date", "2024-01-10")
	f.calendar.View(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	var grid calendarUC.Grid
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, ctx).Data, &grid))
	require.Len(t, grid.Days, 31)
	assert.Equal(t, 1, grid.LeadingBlanks)
	assert.Len(t, grid.Days[19].Tasks, 1)
	assert.True(t, grid.Days[14].IsToday)

	ctx = newRequest(fasthttp.MethodGet, "", "u1", nil)
	ctx.QueryArgs().Set("mode", "year")
	f.calendar.View(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestCalendarHandler_SyncDisabled(t *testing.T) {
	f := newFixture()
	ctx := newRequest(fasthttp.MethodPost, "", "u1", nil)
	f.calendar.Sync(ctx)
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())
}

func TestCalendarHandler_TaskICS(t *testing.T) {
	f := newFixture()
	created := f.create(t, essay)

	ctx := newRequest(fasthttp.MethodGet, "", "u1", map[string]string{"id": jsonID(created.ID)})
	f.calendar.TaskICS(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Header.ContentType()), "text/calendar")
	assert.Contains(t, string(ctx.Response.Body()), "DTSTART;VALUE=DATE:20240120")
}

type stubProvider struct {
	deltas []domain.ChatDelta
	err    error
}

func (p stubProvider) Stream(ctx context.Context, _ string, _ []domain.ChatMessage) (<-chan domain.ChatDelta, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make(chan domain.ChatDelta, len(p.deltas))
	for _, d := range p.deltas {
		out <- d
	}
	close(out)
	return out, nil
}

const chatBody = `{"messages":[{"role":"user","content":"Hola"}]}`

func TestChatHandler_Streams(t *testing.T) {
	relay := chatUC.NewRelay(stubProvider{deltas: []domain.ChatDelta{{Text: "Hola"}, {Text: " mundo"}}}, chatUC.Config{}, nil)
	h := NewChatHandler(relay, time.Second, httpcontext.NewAdapter(time.Second), nil)

	ctx := newRequest(fasthttp.MethodPost, chatBody, "", nil)
	h.Chat(ctx)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "text/plain; charset=utf-8", string(ctx.Response.Header.ContentType()))
	assert.Equal(t, "Hola mundo", string(ctx.Response.Body()))
}

func TestChatHandler_ProviderFailureIsBadGateway(t *testing.T) {
	relay := chatUC.NewRelay(stubProvider{err: errors.New("status 529")}, chatUC.Config{}, nil)
	h := NewChatHandler(relay, time.Second, nil, nil)

	ctx := newRequest(fasthttp.MethodPost, chatBody, "", nil)
	h.Chat(ctx)

	assert.Equal(t, fasthttp.StatusBadGateway, ctx.Response.StatusCode())
	assert.Equal(t, codeUpstream, decodeEnvelope(t, ctx).Code)
}

func TestChatHandler_DisabledAndInvalid(t *testing.T) {
	h := NewChatHandler(chatUC.NewRelay(nil, chatUC.Config{}, nil), time.Second, nil, nil)
	ctx := newRequest(fasthttp.MethodPost, chatBody, "", nil)
	h.Chat(ctx)
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())

	h = NewChatHandler(chatUC.NewRelay(stubProvider{}, chatUC.Config{}, nil), time.Second, nil, nil)
	ctx = newRequest(fasthttp.MethodPost, `{"messages":[]}`, "", nil)
	h.Chat(ctx)
	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrTaskNotFound, fasthttp.StatusNotFound},
		{domain.ErrTaskExists, fasthttp.StatusConflict},
		{domain.ErrUnauthorized, fasthttp.StatusUnauthorized},
		{&domain.ValidationError{}, fasthttp.StatusBadRequest},
		{domain.ErrFeatureDisabled, fasthttp.StatusServiceUnavailable},
		{errors.New("boom"), fasthttp.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}
}

func jsonID(id int64) string {
	return strconv.FormatInt(id, 10)
}
