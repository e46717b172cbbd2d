package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/dateutil"
)

func validTask() domain.Task {
	return domain.Task{
		Title:          "Ensayo",
		Subject:        "Historia",
		DueDate:        dateutil.MustParseDate("2024-01-15"),
		EstimatedHours: 2,
		Priority:       domain.PriorityHigh,
		Status:         domain.StatusPending,
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	return vErr.FieldMap()
}

func TestTaskValid(t *testing.T) {
	task := validTask()
	assert.NoError(t, New().Task(&task))
}

func TestTaskRequiredFields(t *testing.T) {
	task := domain.Task{Title: "   ", Priority: domain.PriorityLow, Status: domain.StatusPending}

	fields := fieldsOf(t, New().Task(&task))

	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "subject")
	assert.Contains(t, fields, "dueDate")
	assert.Contains(t, fields, "estimatedHours")
	assert.Equal(t, "title cannot be blank", fields["title"])
}

func TestTaskEnumsAndLimits(t *testing.T) {
	task := validTask()
	task.Priority = "urgent"
	task.Status = "archived"
	task.Description = strings.Repeat("á", 501)

	fields := fieldsOf(t, New().Task(&task))

	assert.Contains(t, fields, "priority")
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "description")

	task = validTask()
	task.Description = strings.Repeat("á", 500)
	assert.NoError(t, New().Task(&task))
}

func TestMessages(t *testing.T) {
	v := New()

	assert.NoError(t, v.Messages([]domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: "Hola"},
		{Role: domain.ChatRoleAssistant, Content: "¿En qué te ayudo?"},
	}))

	assert.True(t, domain.IsDomainError(v.Messages(nil), domain.ErrCodeInvalid))

	fields := fieldsOf(t, v.Messages([]domain.ChatMessage{{Role: "system", Content: "x"}}))
	assert.Contains(t, fields, "role")

	fields = fieldsOf(t, v.Messages([]domain.ChatMessage{{Role: domain.ChatRoleUser, Content: " "}}))
	assert.Contains(t, fields, "content")
}
