package task

import (
	"context"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/dateutil"
)

type demoTask struct {
	title, subject, description string
	dueIn, createdAgo           int
	hours                       int
	priority                    domain.Priority
	status                      domain.Status
	reminder                    *dateutil.Clock
}

var demoTasks = []demoTask{
	{"Ensayo de Historia Contemporánea", "Historia", "Escribir un ensayo de 2000 palabras sobre la Guerra Fría",
		2, 5, 8, domain.PriorityHigh, domain.StatusPending, &dateutil.Clock{Hour: 9}},
	{"Laboratorio de Química Orgánica", "Química", "Completar el reporte del experimento de síntesis de compuestos aromáticos",
		4, 7, 4, domain.PriorityMedium, domain.StatusCompleted, &dateutil.Clock{Hour: 14}},
	{"Proyecto Final de Programación", "Informática", "Desarrollar una aplicación web completa con base de datos",
		12, 10, 20, domain.PriorityHigh, domain.StatusInProgress, &dateutil.Clock{Hour: 10}},
	{"Examen de Matemáticas", "Matemáticas", "Estudiar capítulos 5-8: Cálculo integral",
		7, 3, 6, domain.PriorityLow, domain.StatusPending, &dateutil.Clock{Hour: 8}},
	{"Presentación de Literatura", "Literatura", "Análisis de 'Cien años de soledad' de García Márquez",
		9, 6, 5, domain.PriorityMedium, domain.StatusPending, nil},
}

// SeedDemo fills an empty collection with sample coursework dated around today.
// A collection that already holds tasks is left alone.
func (uc *UseCase) SeedDemo(ctx context.Context, ownerID string) (int, error) {
	existing, err := uc.tasks.List(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	today := uc.Today()
	for _, demo := range demoTasks {
		task := domain.Task{
			OwnerID:        ownerID,
			Title:          demo.title,
			Subject:        demo.subject,
			Description:    demo.description,
			DueDate:        today.AddDays(demo.dueIn),
			EstimatedHours: demo.hours,
			Priority:       demo.priority,
			Status:         demo.status,
			Reminder:       demo.reminder != nil,
			CreatedAt:      today.AddDays(-demo.createdAgo),
		}
		if demo.reminder != nil {
			rt := *demo.reminder
			task.ReminderTime = &rt
		}
		task.SyncCompletion(today.AddDays(-1))
		if _, err := uc.tasks.Create(ctx, &task); err != nil {
			return 0, err
		}
	}
	return len(demoTasks), nil
}
