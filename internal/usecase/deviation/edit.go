package deviation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"sentinela/internal/bootstrap/logging"
	domain "sentinela/internal/domain/deviation"
	"sentinela/internal/errs"
	"sentinela/internal/ports"
	"sentinela/internal/usecase/session"
)

// unattendedAfter is how long an event may sit untouched before the sweep
// marks it unattended, measured from the store's created timestamp.
const unattendedAfter = 2 * time.Hour

// SubmitResult reports one event submission: the derived status and how many
// of the event's rows the store accepted.
type SubmitResult struct {
	Status  domain.Status `json:"status"`
	Written int           `json:"written"`
	Total   int           `json:"total"`
}

func (s *Service) editableEvent(sess *session.Session, title string) (domain.Event, error) {
	snapshot := s.currentSnapshot()
	event, ok := snapshot.eventByTitle(title)
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	info := domain.ParseTitle(event.Title)
	if !domain.CanView(sess.User, info.POI) {
		return domain.Event{}, domain.ErrAccessDenied
	}
	if !domain.CanEdit(sess.User, event.StoredStatus()) {
		return domain.Event{}, domain.ErrAccessDenied
	}
	return event, nil
}

func findRow(event domain.Event, rowID string) (domain.Row, bool) {
	for _, row := range event.Rows {
		if row.ID == rowID {
			return row, true
		}
	}
	return domain.Row{}, false
}

// StageEdit stages a reason or note edit. Nothing is written to the store;
// the value lives in the session overlay until Submit.
func (s *Service) StageEdit(ctx context.Context, sess *session.Session, title, rowID, field, value string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	if _, ok := domain.EditableFields[field]; !ok || field == domain.FieldRelease {
		return errs.Wrapf(domain.ErrAccessDenied, "field %q is not editable here", field)
	}

	event, err := s.editableEvent(sess, title)
	if err != nil {
		return err
	}
	row, ok := findRow(event, rowID)
	if !ok {
		return domain.ErrEventNotFound
	}

	if field == domain.FieldReason {
		normalized := domain.NormalizeField(value)
		if normalized != "" && !s.policy.Reasons().AllowsReason(domain.ParseTitle(title).POI, normalized) {
			return &domain.ValidationError{
				Lines: []string{fmt.Sprintf("• Placa %s: motivo não disponível para este ponto", row.Plate)},
			}
		}
	}

	sess.Edits.Stage(title, rowID, field, value)
	return nil
}

// StageRelease stages a predicted-release edit from its two raw sub-fields.
// Both blank clears the staged value; both filled must parse and land after
// the row's entry time.
func (s *Service) StageRelease(ctx context.Context, sess *session.Session, title, rowID, dateStr, timeStr string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	event, err := s.editableEvent(sess, title)
	if err != nil {
		return err
	}
	row, ok := findRow(event, rowID)
	if !ok {
		return domain.ErrEventNotFound
	}

	check := domain.ValidateDateTimePair(dateStr, timeStr)
	if !check.Valid {
		return &domain.ValidationError{
			Lines: []string{fmt.Sprintf("• Placa %s: %s", row.Plate, check.Err)},
		}
	}
	if check.HasValue {
		if ok, msg := domain.ValidateAfterEntry(check.Value, row.EnteredAt); !ok {
			return &domain.ValidationError{
				Lines: []string{fmt.Sprintf("• Placa %s: %s", row.Plate, msg)},
			}
		}
	}

	sess.Edits.Stage(title, rowID, domain.FieldRelease, check.Formatted)
	return nil
}

// Submit validates the session's staged edits for one event and writes them
// back to the store in one batch, together with the recomputed event status
// on every row. The overlay is cleared once the batch has been attempted.
func (s *Service) Submit(ctx context.Context, sess *session.Session, title string) (SubmitResult, error) {
	if ctx == nil {
		return SubmitResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return SubmitResult{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "deviation.service"),
		slog.String("event", title),
	)

	event, err := s.editableEvent(sess, title)
	if err != nil {
		return SubmitResult{}, err
	}
	if !sess.Edits.EventHasEdits(title) {
		return SubmitResult{}, domain.ErrNothingToSubmit
	}
	if lines := domain.ValidateEvent(event, sess.Edits); len(lines) > 0 {
		return SubmitResult{}, &domain.ValidationError{Lines: lines}
	}

	now := s.now()
	status := domain.ComputeEventStatus(event, sess.Edits)

	updates := make([]ports.ItemUpdate, 0, len(event.Rows))
	for _, row := range event.Rows {
		id, convErr := strconv.Atoi(row.ID)
		if convErr != nil {
			logging.Warn(logCtx, "row skipped, non-numeric id", slog.String("row", row.ID))
			continue
		}

		fields := ports.FieldMap{domain.FieldStatus: string(status)}
		if edits := sess.Edits.RowEdits(title, row.ID); len(edits) > 0 {
			for field, value := range edits {
				if field == domain.FieldRelease {
					fields[field] = domain.FormatStoreRelease(value)
				} else {
					fields[field] = domain.FormatStoreValue(value)
				}
			}
			fields[domain.FieldFilledBy] = sess.User.Name
			fields[domain.FieldFilledAt] = domain.FormatStoreTimestamp(now)
		}
		updates = append(updates, ports.ItemUpdate{ID: id, Fields: fields})
	}

	written, batchErr := s.store.UpdateBatch(ctx, s.cfg.DeviationsList, updates)
	sess.Edits.ClearEvent(title)
	if batchErr != nil {
		return SubmitResult{}, errs.Wrap(batchErr, "write event updates")
	}

	if s.metrics != nil {
		s.metrics.Submissions.Inc()
	}
	s.applyStatus(title, status)
	s.journal(ctx, title, sess.User.Email, "submit",
		fmt.Sprintf("status=%s written=%d/%d", status, written, len(updates)), now)

	logging.Info(logCtx, "event submitted",
		slog.String("status", string(status)),
		slog.Int("written", written),
		slog.Int("rows", len(updates)),
	)
	return SubmitResult{Status: status, Written: written, Total: len(updates)}, nil
}

// Approve settles a filled event. Only approver and oversight roles may
// decide, and only events whose stored status is Filled.
func (s *Service) Approve(ctx context.Context, sess *session.Session, title string) error {
	return s.decide(ctx, sess, title, domain.StatusApproved, "")
}

// Reject returns a filled event to the field with a mandatory justification.
func (s *Service) Reject(ctx context.Context, sess *session.Session, title, justification string) error {
	if domain.IsBlank(justification) {
		return ErrJustificationEmpty
	}
	return s.decide(ctx, sess, title, domain.StatusRejected, justification)
}

func (s *Service) decide(ctx context.Context, sess *session.Session, title string, verdict domain.Status, justification string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	if !sess.User.Role.CanApprove() {
		return domain.ErrApprovalForbidden
	}

	snapshot := s.currentSnapshot()
	event, ok := snapshot.eventByTitle(title)
	if !ok {
		return domain.ErrEventNotFound
	}
	if event.StoredStatus() != domain.StatusFilled {
		return ErrEventNotDecidable
	}

	now := s.now()
	updates := make([]ports.ItemUpdate, 0, len(event.Rows))
	for _, row := range event.Rows {
		id, convErr := strconv.Atoi(row.ID)
		if convErr != nil {
			continue
		}
		fields := ports.FieldMap{
			domain.FieldStatus:    string(verdict),
			domain.FieldDecidedBy: sess.User.Name,
			domain.FieldDecidedAt: domain.FormatStoreTimestamp(now),
		}
		if verdict == domain.StatusRejected {
			fields[domain.FieldRejectReason] = domain.FormatStoreValue(justification)
		}
		updates = append(updates, ports.ItemUpdate{ID: id, Fields: fields})
	}

	written, err := s.store.UpdateBatch(ctx, s.cfg.DeviationsList, updates)
	if err != nil {
		return errs.Wrap(err, "write decision")
	}

	if s.metrics != nil {
		if verdict == domain.StatusApproved {
			s.metrics.Approvals.Inc()
		} else {
			s.metrics.Rejections.Inc()
		}
	}
	s.applyStatus(title, verdict)
	s.journal(ctx, title, sess.User.Email, strings.ToLower(string(verdict)),
		fmt.Sprintf("written=%d/%d detail=%s", written, len(updates), justification), now)

	logging.Info(ctx, "event decided",
		slog.String("component", "deviation.service"),
		slog.String("event", title),
		slog.String("verdict", string(verdict)),
		slog.Int("written", written),
	)
	return nil
}

// Sweep marks unsettled events older than the unattended cutoff. Approved
// and already-unattended events are final; everything else expires. It
// returns how many events were marked.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "deviation.sweep"))
	snapshot := s.currentSnapshot()
	cutoff := s.now().Add(-unattendedAfter)

	swept := 0
	updates := make([]ports.ItemUpdate, 0)
	marked := make([]string, 0)
	for _, event := range snapshot.Events {
		if stored := event.StoredStatus(); stored == domain.StatusApproved || stored == domain.StatusUnattended {
			continue
		}
		created, ok := parseCreatedAt(event.Rows[0].CreatedAt)
		if !ok || !created.Before(cutoff) {
			continue
		}

		for _, row := range event.Rows {
			id, convErr := strconv.Atoi(row.ID)
			if convErr != nil {
				continue
			}
			updates = append(updates, ports.ItemUpdate{
				ID:     id,
				Fields: ports.FieldMap{domain.FieldStatus: string(domain.StatusUnattended)},
			})
		}
		marked = append(marked, event.Title)
		swept++
	}

	if len(updates) == 0 {
		return 0, nil
	}

	written, err := s.store.UpdateBatch(ctx, s.cfg.DeviationsList, updates)
	if err != nil {
		return 0, errs.Wrap(err, "write sweep updates")
	}

	for _, title := range marked {
		s.applyStatus(title, domain.StatusUnattended)
	}
	if s.metrics != nil {
		s.metrics.SweptEvents.Add(float64(swept))
	}
	logging.Info(logCtx, "unattended sweep finished",
		slog.Int("events", swept),
		slog.Int("written", written),
	)
	return swept, nil
}

// applyStatus reflects a persisted status change on the in-memory snapshot
// so the board is consistent before the next refresh. The snapshot is shared
// with lock-free readers, so the event list is rebuilt and swapped rather
// than written through.
func (s *Service) applyStatus(title string, status domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, event := range s.snapshot.Events {
		if event.Title != title {
			continue
		}

		rows := make([]domain.Row, len(event.Rows))
		copy(rows, event.Rows)
		for j := range rows {
			rows[j].Status = status
		}

		events := make([]domain.Event, len(s.snapshot.Events))
		copy(events, s.snapshot.Events)
		events[i] = domain.Event{Title: event.Title, Rows: rows}
		s.snapshot.Events = events
		return
	}
}

// journal appends a local audit record inside a transaction. Journal
// failures are logged, never surfaced: the store write already happened.
func (s *Service) journal(ctx context.Context, title, actor, action, detail string, now time.Time) {
	if s.audit == nil {
		return
	}
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.audit.Append(txCtx, ports.AuditEntryCreate{
			EventTitle: title,
			Actor:      actor,
			Action:     action,
			Detail:     detail,
			CreatedAt:  domain.FormatStoreTimestamp(now),
		})
	})
	if err != nil {
		logging.Warn(ctx, "audit journal append failed",
			slog.String("component", "deviation.service"),
			slog.String("event", title),
			slog.Any("err", errs.Loggable(err)),
		)
	}
}
