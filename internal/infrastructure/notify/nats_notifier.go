package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"sentinela/internal/bootstrap/config"
	"sentinela/internal/bootstrap/logging"
	"sentinela/internal/errs"
	"sentinela/internal/ports"
)

// NATSNotifier publishes escalation notices on a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

var _ ports.Notifier = (*NATSNotifier)(nil)

// NewNATSNotifier connects to the configured NATS server. A blank URL
// disables publishing and returns a nil notifier, which callers must accept.
func NewNATSNotifier(ctx context.Context, cfg config.NotifyConfig) (*NATSNotifier, error) {
	if strings.TrimSpace(cfg.NATSURL) == "" {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.NATSURL, nats.Name("sentinela"))
	if err != nil {
		return nil, errs.Wrap(err, "connect nats")
	}

	subject := strings.TrimSpace(cfg.Subject)
	if subject == "" {
		subject = "sentinela.escalations"
	}

	logging.Info(ctx, "nats notifier connected",
		slog.String("component", "notify.nats"),
		slog.String("subject", subject),
	)
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

func (n *NATSNotifier) PublishEscalation(ctx context.Context, notice ports.EscalationNotice) error {
	if n == nil || n.conn == nil {
		return nil
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	payload, err := json.Marshal(notice)
	if err != nil {
		return errs.Wrap(err, "encode escalation notice")
	}

	if err := n.conn.Publish(n.subject, payload); err != nil {
		return errs.Wrap(err, "publish escalation notice")
	}
	return nil
}

func (n *NATSNotifier) Close() {
	if n != nil && n.conn != nil {
		n.conn.Close()
	}
}
