package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"sentinela/internal/errs"
	"sentinela/internal/infrastructure/persistence/sqlite/model"
	"sentinela/internal/ports"
)

// AuditRepository implements ports.AuditRepository on gorm/sqlite.
type AuditRepository struct {
	db *gorm.DB
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// session returns the transaction handle from context when a unit of work is
// active, else the base connection.
func (r *AuditRepository) session(ctx context.Context) *gorm.DB {
	if tx, ok := ports.TxFromContext(ctx).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *AuditRepository) Append(ctx context.Context, input ports.AuditEntryCreate) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	if strings.TrimSpace(input.EventTitle) == "" {
		return errors.New("event title is required")
	}
	if strings.TrimSpace(input.Action) == "" {
		return errors.New("action is required")
	}

	row := model.AuditEntry{
		EventTitle: strings.TrimSpace(input.EventTitle),
		Actor:      strings.TrimSpace(input.Actor),
		Action:     strings.TrimSpace(input.Action),
		Detail:     input.Detail,
		CreatedAt:  input.CreatedAt,
	}

	if err := r.session(ctx).Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert audit entry")
	}
	return nil
}

func (r *AuditRepository) ListByEvent(ctx context.Context, eventTitle string) ([]ports.AuditEntry, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	var rows []model.AuditEntry
	if err := r.session(ctx).
		Where("event_title = ?", strings.TrimSpace(eventTitle)).
		Order("entry_id ASC").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query audit entries by event")
	}

	return toPortEntries(rows), nil
}

func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]ports.AuditEntry, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	if limit <= 0 {
		limit = 50
	}

	var rows []model.AuditEntry
	if err := r.session(ctx).
		Order("entry_id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query recent audit entries")
	}

	return toPortEntries(rows), nil
}

func toPortEntries(rows []model.AuditEntry) []ports.AuditEntry {
	out := make([]ports.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.AuditEntry{
			EntryID:    row.EntryID,
			EventTitle: row.EventTitle,
			Actor:      row.Actor,
			Action:     row.Action,
			Detail:     row.Detail,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out
}
