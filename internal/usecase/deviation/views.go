package deviation

import (
	"context"
	"errors"
	"time"

	domain "sentinela/internal/domain/deviation"
	"sentinela/internal/errs"
	"sentinela/internal/ports"
	"sentinela/internal/usecase/session"
)

// EventView is one board card: parsed identity, elapsed-time escalation and
// the status as the session sees it, staged edits included.
type EventView struct {
	Title       string        `json:"title"`
	Category    string        `json:"category"`
	POI         string        `json:"poi"`
	DisplayTime string        `json:"display_time"`
	Elapsed     string        `json:"elapsed"`
	TimeStatus  string        `json:"time_status"`
	Status      domain.Status `json:"status"`
	RowCount    int           `json:"row_count"`
	HasEdits    bool          `json:"has_edits"`
	CanEdit     bool          `json:"can_edit"`
}

// RowView is one vehicle row with staged edits resolved on top of the
// persisted values.
type RowView struct {
	ID        string        `json:"id"`
	Plate     string        `json:"plate"`
	EnteredAt string        `json:"entered_at"`
	Reason    string        `json:"reason"`
	Release   string        `json:"release"`
	Note      string        `json:"note"`
	Status    domain.Status `json:"status"`
	Edited    bool          `json:"edited"`
}

// EventDetailView is the expanded card: its rows, the reasons selectable at
// its POI and the release slots offered for staging.
type EventDetailView struct {
	Event          EventView              `json:"event"`
	Rows           []RowView              `json:"rows"`
	Reasons        []string               `json:"reasons"`
	ReleaseOptions []domain.ReleaseOption `json:"release_options"`
}

// DashboardView aggregates the board for one session.
type DashboardView struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	ByStatus   map[string]int `json:"by_status"`
	Critical   int            `json:"critical"`
	Attention  int            `json:"attention"`
	LoadedAt   time.Time      `json:"loaded_at"`
	Stale      bool           `json:"stale"`
}

func (s *Service) buildEventView(event domain.Event, sess *session.Session, now time.Time, policy domain.EscalationPolicy) EventView {
	info := domain.ParseTitle(event.Title)
	entry := ""
	if len(event.Rows) > 0 {
		entry = event.Rows[0].EnteredAt
	}
	elapsed := domain.ElapsedForCategory(info.Category, entry, now, policy)
	status := domain.ComputeEventStatus(event, sess.Edits)

	return EventView{
		Title:       event.Title,
		Category:    info.Category,
		POI:         info.POI,
		DisplayTime: info.DisplayTime,
		Elapsed:     elapsed.Text,
		TimeStatus:  elapsed.TimeStatus,
		Status:      status,
		RowCount:    len(event.Rows),
		HasEdits:    sess.Edits.EventHasEdits(event.Title),
		CanEdit:     domain.CanEdit(sess.User, event.StoredStatus()),
	}
}

// visibleEvents filters the snapshot down to the events the session's user
// may see, in snapshot order. Unattended events are settled by the sweep and
// leave the board.
func (s *Service) visibleEvents(snapshot Snapshot, user domain.User) []domain.Event {
	visible := make([]domain.Event, 0, len(snapshot.Events))
	for _, event := range snapshot.Events {
		if event.StoredStatus() == domain.StatusUnattended {
			continue
		}
		info := domain.ParseTitle(event.Title)
		if domain.CanView(user, info.POI) {
			visible = append(visible, event)
		}
	}
	return visible
}

// Events lists the board for one session: access-filtered, with per-event
// status resolved against the session's staged edits.
func (s *Service) Events(ctx context.Context, sess *session.Session) ([]EventView, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	snapshot := s.currentSnapshot()
	policy := s.policy.Escalation()
	now := s.now()

	events := s.visibleEvents(snapshot, sess.User)
	views := make([]EventView, 0, len(events))
	for _, event := range events {
		views = append(views, s.buildEventView(event, sess, now, policy))
	}
	return views, nil
}

// EventDetail expands one event for the session, rows resolved against its
// staged edits.
func (s *Service) EventDetail(ctx context.Context, sess *session.Session, title string) (EventDetailView, error) {
	if ctx == nil {
		return EventDetailView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return EventDetailView{}, errs.Wrap(err, "check context")
	}

	snapshot := s.currentSnapshot()
	event, ok := snapshot.eventByTitle(title)
	if !ok {
		return EventDetailView{}, domain.ErrEventNotFound
	}
	info := domain.ParseTitle(event.Title)
	if !domain.CanView(sess.User, info.POI) {
		return EventDetailView{}, domain.ErrAccessDenied
	}

	now := s.now()
	rows := make([]RowView, 0, len(event.Rows))
	for _, row := range event.Rows {
		rows = append(rows, RowView{
			ID:        row.ID,
			Plate:     row.Plate,
			EnteredAt: row.EnteredAt,
			Reason:    sess.Edits.EffectiveReason(row),
			Release:   sess.Edits.EffectiveRelease(row),
			Note:      sess.Edits.EffectiveNote(row),
			Status:    row.Status,
			Edited:    len(sess.Edits.RowEdits(event.Title, row.ID)) > 0,
		})
	}

	return EventDetailView{
		Event:          s.buildEventView(event, sess, now, s.policy.Escalation()),
		Rows:           rows,
		Reasons:        s.policy.Reasons().ReasonsForPOI(info.POI),
		ReleaseOptions: domain.ReleaseOptions(now),
	}, nil
}

// Dashboard aggregates the visible, still-open events by category, status
// and escalation bucket. Approved events are settled and excluded from the
// category counts.
func (s *Service) Dashboard(ctx context.Context, sess *session.Session) (DashboardView, error) {
	if ctx == nil {
		return DashboardView{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return DashboardView{}, errs.Wrap(err, "check context")
	}

	snapshot := s.currentSnapshot()
	policy := s.policy.Escalation()
	now := s.now()

	view := DashboardView{
		ByCategory: make(map[string]int),
		ByStatus:   make(map[string]int),
		LoadedAt:   snapshot.LoadedAt,
		Stale:      snapshot.Stale,
	}

	for _, event := range s.visibleEvents(snapshot, sess.User) {
		status := domain.ComputeEventStatus(event, sess.Edits)
		view.ByStatus[string(status)]++
		if status == domain.StatusApproved {
			continue
		}

		info := domain.ParseTitle(event.Title)
		view.Total++
		view.ByCategory[info.Category]++

		entry := ""
		if len(event.Rows) > 0 {
			entry = event.Rows[0].EnteredAt
		}
		switch domain.ElapsedForCategory(info.Category, entry, now, policy).TimeStatus {
		case domain.TimeStatusCritical:
			view.Critical++
		case domain.TimeStatusAttention:
			view.Attention++
		}
	}
	return view, nil
}

// AuditTrail lists the locally journaled actions for one event.
func (s *Service) AuditTrail(ctx context.Context, sess *session.Session, title string) ([]ports.AuditEntry, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	info := domain.ParseTitle(title)
	if !domain.CanView(sess.User, info.POI) {
		return nil, domain.ErrAccessDenied
	}
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.ListByEvent(ctx, title)
}

// ReleaseSlots returns the selectable release forecasts anchored at the
// current reference time.
func (s *Service) ReleaseSlots(ctx context.Context) ([]domain.ReleaseOption, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}
	return domain.ReleaseOptions(s.now()), nil
}
