package deviation

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"sentinela/internal/bootstrap/config"
	"sentinela/internal/bootstrap/logging"
	domain "sentinela/internal/domain/deviation"
	"sentinela/internal/errs"
)

type escalationFile struct {
	Escalation struct {
		AttentionMinutes    int   `toml:"attention_minutes"`
		CriticalMinutes     int   `toml:"critical_minutes"`
		ExemptInformational *bool `toml:"exempt_informational"`
	} `toml:"escalation"`
}

type reasonsFile struct {
	StagingArea []string `yaml:"staging_area"`
	Maintenance []string `yaml:"maintenance"`
	Terminal    []string `yaml:"terminal"`
	Factory     []string `yaml:"factory"`
}

// PolicyProvider serves the escalation policy and reason catalog, built-in
// defaults overridable from files and reloaded live when the files change.
type PolicyProvider struct {
	cfg config.PolicyConfig

	mu      sync.RWMutex
	policy  domain.EscalationPolicy
	reasons domain.ReasonCatalog

	watcher *fsnotify.Watcher
}

func NewPolicyProvider(ctx context.Context, cfg config.PolicyConfig) *PolicyProvider {
	p := &PolicyProvider{
		cfg:     cfg,
		policy:  domain.DefaultEscalationPolicy(),
		reasons: domain.DefaultReasonCatalog(),
	}
	p.reload(ctx)
	return p
}

// Escalation returns the current escalation policy.
func (p *PolicyProvider) Escalation() domain.EscalationPolicy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.policy
}

// Reasons returns the current reason catalog.
func (p *PolicyProvider) Reasons() domain.ReasonCatalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reasons
}

func (p *PolicyProvider) reload(ctx context.Context) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "deviation.policy"))

	policy := domain.DefaultEscalationPolicy()
	if path := strings.TrimSpace(p.cfg.EscalationFile); path != "" {
		if loaded, err := loadEscalationFile(path); err != nil {
			logging.Warn(logCtx, "escalation policy file unreadable, keeping defaults",
				slog.String("path", path),
				slog.Any("err", errs.Loggable(err)),
			)
		} else {
			policy = loaded
		}
	}

	reasons := domain.DefaultReasonCatalog()
	if path := strings.TrimSpace(p.cfg.ReasonsFile); path != "" {
		if loaded, err := loadReasonsFile(path); err != nil {
			logging.Warn(logCtx, "reason catalog file unreadable, keeping defaults",
				slog.String("path", path),
				slog.Any("err", errs.Loggable(err)),
			)
		} else {
			reasons = loaded
		}
	}

	p.mu.Lock()
	p.policy = policy
	p.reasons = reasons
	p.mu.Unlock()
}

func loadEscalationFile(path string) (domain.EscalationPolicy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.EscalationPolicy{}, errs.Wrap(err, "read escalation file")
	}

	var file escalationFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return domain.EscalationPolicy{}, errs.Wrap(err, "parse escalation file")
	}

	policy := domain.DefaultEscalationPolicy()
	if file.Escalation.AttentionMinutes > 0 {
		policy.AttentionAfter = time.Duration(file.Escalation.AttentionMinutes) * time.Minute
	}
	if file.Escalation.CriticalMinutes > 0 {
		policy.CriticalAfter = time.Duration(file.Escalation.CriticalMinutes) * time.Minute
	}
	if file.Escalation.ExemptInformational != nil {
		policy.ExemptInformational = *file.Escalation.ExemptInformational
	}
	return policy, nil
}

func loadReasonsFile(path string) (domain.ReasonCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.ReasonCatalog{}, errs.Wrap(err, "read reasons file")
	}

	var file reasonsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return domain.ReasonCatalog{}, errs.Wrap(err, "parse reasons file")
	}

	catalog := domain.DefaultReasonCatalog()
	if len(file.StagingArea) > 0 {
		catalog.StagingArea = file.StagingArea
	}
	if len(file.Maintenance) > 0 {
		catalog.Maintenance = file.Maintenance
	}
	if len(file.Terminal) > 0 {
		catalog.Terminal = file.Terminal
	}
	if len(file.Factory) > 0 {
		catalog.Factory = file.Factory
	}
	return catalog, nil
}

// Watch reloads the policy files whenever they change, until the context is
// cancelled. It is a no-op when watching is disabled or no files are named.
func (p *PolicyProvider) Watch(ctx context.Context) error {
	if !p.cfg.WatchFiles {
		return nil
	}

	paths := make([]string, 0, 2)
	for _, path := range []string{p.cfg.EscalationFile, p.cfg.ReasonsFile} {
		if strings.TrimSpace(path) != "" {
			paths = append(paths, path)
		}
	}
	if len(paths) == 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create policy watcher")
	}
	p.watcher = watcher

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			logging.Warn(ctx, "cannot watch policy file",
				slog.String("component", "deviation.policy"),
				slog.String("path", path),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					logging.Info(ctx, "policy file changed, reloading",
						slog.String("component", "deviation.policy"),
						slog.String("path", event.Name),
					)
					p.reload(ctx)
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn(ctx, "policy watcher error",
					slog.String("component", "deviation.policy"),
					slog.Any("err", errs.Loggable(watchErr)),
				)
			}
		}
	}()

	return nil
}
