package task

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

const exportFilenamePattern = "tareas_academicas_%s.json"

// ExportDocument is a pretty-printed JSON array of the owner's tasks.
type ExportDocument struct {
	Filename string
	Body     []byte
}

// RejectedRecord explains why one element of an import document was skipped.
type RejectedRecord struct {
	Index  int               `json:"index"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type ImportReport struct {
	Imported []domain.Task    `json:"imported"`
	Rejected []RejectedRecord `json:"rejected"`
}

func (uc *UseCase) Export(ctx context.Context, ownerID string) (*ExportDocument, error) {
	tasks, err := uc.tasks.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	body, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "failed to encode tasks", err)
	}
	return &ExportDocument{
		Filename: fmt.Sprintf(exportFilenamePattern, uc.Today().String()),
		Body:     body,
	}, nil
}

// Import appends the tasks of an exported document. A document that is not a JSON
// array is rejected whole and the collection stays untouched; inside a valid array
// every record is checked on its own. The accepted records are stored all or nothing.
func (uc *UseCase) Import(ctx context.Context, ownerID string, doc []byte) (*ImportReport, error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, domain.ErrInvalidImportDoc
	}
	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, domain.ErrInvalidImportDoc.Message, err)
	}

	report := &ImportReport{
		Imported: make([]domain.Task, 0, len(records)),
		Rejected: make([]RejectedRecord, 0),
	}
	today := uc.Today()
	accepted := make([]domain.Task, 0, len(records))
	for i, raw := range records {
		var task domain.Task
		if err := json.Unmarshal(raw, &task); err != nil {
			report.Rejected = append(report.Rejected, RejectedRecord{Index: i, Error: err.Error()})
			continue
		}
		task.OwnerID = ownerID
		if task.CreatedAt.IsZero() {
			task.CreatedAt = today
		}
		if err := uc.validator.Task(&task); err != nil {
			report.Rejected = append(report.Rejected, rejection(i, err))
			continue
		}
		task.SyncCompletion(today)
		accepted = append(accepted, task)
	}

	if len(accepted) == 0 {
		return report, nil
	}
	uc.resolveImportIDs(ctx, accepted)
	created, err := uc.tasks.CreateMany(ctx, accepted)
	if errors.Is(err, domain.ErrTaskExists) {
		// an id was taken between the check and the insert
		for i := range accepted {
			accepted[i].ID = 0
		}
		created, err = uc.tasks.CreateMany(ctx, accepted)
	}
	if err != nil {
		return nil, err
	}
	report.Imported = append(report.Imported, created...)

	uc.logger.Info("tasks imported",
		zap.String("owner_id", ownerID),
		zap.Int("imported", len(report.Imported)),
		zap.Int("rejected", len(report.Rejected)),
	)
	return report, nil
}

// resolveImportIDs keeps a document id only when it is in range, unique within
// the document and unused; every other record gets a fresh id on insert.
func (uc *UseCase) resolveImportIDs(ctx context.Context, tasks []domain.Task) {
	seen := make(map[int64]struct{}, len(tasks))
	for i := range tasks {
		id := tasks[i].ID
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup || !repository.AssignableID(id) || uc.idTaken(ctx, id) {
			tasks[i].ID = 0
			continue
		}
		seen[id] = struct{}{}
	}
}

func (uc *UseCase) idTaken(ctx context.Context, id int64) bool {
	_, err := uc.tasks.GetByID(ctx, id)
	return err == nil
}

func rejection(index int, err error) RejectedRecord {
	rec := RejectedRecord{Index: index, Error: err.Error()}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		rec.Fields = vErr.FieldMap()
	}
	return rec
}
