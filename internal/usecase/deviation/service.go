package deviation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentinela/internal/bootstrap/config"
	"sentinela/internal/bootstrap/logging"
	domain "sentinela/internal/domain/deviation"
	"sentinela/internal/errs"
	"sentinela/internal/ports"
	"sentinela/internal/usecase/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEventNotDecidable  = errors.New("event is not awaiting a decision")
	ErrJustificationEmpty = errors.New("rejection requires a justification")
)

const snapshotCacheKey = "snapshot:v1"

// Service is the reconciliation engine behind the operations board. It owns
// the in-memory snapshot of both remote lists, resolves staged edits against
// it, and pushes accepted changes back through the list store.
type Service struct {
	cfg      config.StoreConfig
	store    ports.ListStore
	cache    ports.Cache
	audit    ports.AuditRepository
	uow      ports.UnitOfWork
	notifier ports.Notifier
	policy   *PolicyProvider
	sessions *session.Manager
	metrics  *Metrics

	now func() time.Time

	mu       sync.RWMutex
	snapshot Snapshot
	notified map[string]string

	listenerMu sync.Mutex
	listeners  []func()
}

func NewService(
	cfg config.StoreConfig,
	store ports.ListStore,
	cache ports.Cache,
	audit ports.AuditRepository,
	uow ports.UnitOfWork,
	notifier ports.Notifier,
	policy *PolicyProvider,
	sessions *session.Manager,
	metrics *Metrics,
) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		cache:    cache,
		audit:    audit,
		uow:      uow,
		notifier: notifier,
		policy:   policy,
		sessions: sessions,
		metrics:  metrics,
		now: func() time.Time {
			return time.Now().In(domain.ReferenceLocation())
		},
		notified: make(map[string]string),
	}
}

// Sessions exposes the session manager to the transport layer.
func (s *Service) Sessions() *session.Manager {
	return s.sessions
}

// OnRefresh registers a callback invoked after every successful snapshot
// swap. Callbacks must not block.
func (s *Service) OnRefresh(fn func()) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) notifyListeners() {
	s.listenerMu.Lock()
	fns := make([]func(), len(s.listeners))
	copy(fns, s.listeners)
	s.listenerMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *Service) currentSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Refresh reloads both lists from the store and swaps the snapshot. When the
// store is unreachable it falls back to the last cached copy and marks the
// snapshot stale; the board keeps serving reads either way.
func (s *Service) Refresh(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "deviation.service"))
	started := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RefreshDuration.Observe(time.Since(started).Seconds())
		}
	}()

	var (
		wg             sync.WaitGroup
		userItems      []ports.FieldMap
		deviationItems []ports.FieldMap
		userErr        error
		deviationErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		userItems, userErr = s.store.LoadList(ctx, s.cfg.UsersList, s.cfg.ListLimit)
	}()
	go func() {
		defer wg.Done()
		deviationItems, deviationErr = s.store.LoadList(ctx, s.cfg.DeviationsList, s.cfg.ListLimit)
	}()
	wg.Wait()

	if userErr != nil || deviationErr != nil {
		if s.metrics != nil {
			s.metrics.RefreshFailures.Inc()
		}
		loadErr := userErr
		if loadErr == nil {
			loadErr = deviationErr
		}
		return s.restoreFromCache(logCtx, loadErr)
	}

	snapshot := Snapshot{
		Users:    usersFromItems(userItems),
		Events:   groupEvents(deviationItems),
		LoadedAt: s.now(),
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	s.cacheSnapshot(logCtx, snapshot)
	s.publishEscalations(logCtx, snapshot)
	s.notifyListeners()

	logging.Info(logCtx, "snapshot refreshed",
		slog.Int("users", len(snapshot.Users)),
		slog.Int("events", len(snapshot.Events)),
	)
	return nil
}

func (s *Service) cacheSnapshot(ctx context.Context, snapshot Snapshot) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		logging.Warn(ctx, "cannot encode snapshot for cache", slog.Any("err", errs.Loggable(err)))
		return
	}
	if err := s.cache.Set(ctx, snapshotCacheKey, string(raw), 0); err != nil {
		logging.Warn(ctx, "cannot cache snapshot", slog.Any("err", errs.Loggable(err)))
	}
}

func (s *Service) restoreFromCache(ctx context.Context, loadErr error) error {
	if s.cache == nil {
		return errs.Wrap(errors.Join(domain.ErrStoreUnavailable, loadErr), "load lists")
	}

	raw, found, err := s.cache.Get(ctx, snapshotCacheKey)
	if err != nil || !found {
		return errs.Wrap(errors.Join(domain.ErrStoreUnavailable, loadErr), "load lists")
	}

	var cached Snapshot
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return errs.Wrap(errors.Join(domain.ErrStoreUnavailable, loadErr), "load lists")
	}
	cached.Stale = true

	s.mu.Lock()
	s.snapshot = cached
	s.mu.Unlock()

	logging.Warn(ctx, "store unreachable, serving cached snapshot",
		slog.Time("loaded_at", cached.LoadedAt),
		slog.Any("err", errs.Loggable(loadErr)),
	)
	s.notifyListeners()
	return nil
}

// publishEscalations emits one notice per event the first time it crosses
// into the critical bucket. Delivery is best effort.
func (s *Service) publishEscalations(ctx context.Context, snapshot Snapshot) {
	if s.notifier == nil {
		return
	}
	policy := s.policy.Escalation()
	now := s.now()

	for _, event := range snapshot.Events {
		if event.StoredStatus().Authoritative() {
			continue
		}
		info := domain.ParseTitle(event.Title)
		entry := ""
		if len(event.Rows) > 0 {
			entry = event.Rows[0].EnteredAt
		}
		elapsed := domain.ElapsedForCategory(info.Category, entry, now, policy)

		s.mu.Lock()
		previous := s.notified[event.Title]
		s.notified[event.Title] = elapsed.TimeStatus
		s.mu.Unlock()

		if elapsed.TimeStatus != domain.TimeStatusCritical || previous == domain.TimeStatusCritical {
			continue
		}

		notice := ports.EscalationNotice{
			NoticeID:   uuid.NewString(),
			EventTitle: event.Title,
			Category:   info.Category,
			POI:        info.POI,
			TimeStatus: elapsed.TimeStatus,
			Elapsed:    elapsed.Text,
			RowCount:   len(event.Rows),
			EmittedAt:  now.Format(time.RFC3339),
		}
		if err := s.notifier.PublishEscalation(ctx, notice); err != nil {
			logging.Warn(ctx, "escalation notice not published",
				slog.String("event", event.Title),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
}

// Login resolves credentials against the users list and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (*session.Session, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	snapshot := s.currentSnapshot()
	for _, record := range snapshot.Users {
		if record.User.Email != email {
			continue
		}
		if record.Password != password {
			return nil, ErrInvalidCredentials
		}
		sess := s.sessions.Create(record.User)
		logging.Info(ctx, "session opened",
			slog.String("component", "deviation.service"),
			slog.String("user", record.User.Email),
			slog.String("role", string(record.User.Role)),
		)
		return sess, nil
	}
	return nil, ErrInvalidCredentials
}

// Logout discards the session and all of its staged edits.
func (s *Service) Logout(ctx context.Context, token string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	s.sessions.Delete(token)
	return nil
}
