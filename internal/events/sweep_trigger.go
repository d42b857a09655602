// Package events lets other processes trigger an expiry sweep over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kevin42127/TinyLink/internal/logger"
	"github.com/nats-io/nats.go"
)

const defaultSweepTimeout = 30 * time.Second

type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

// SweepRequest is the optional message body. An empty body sweeps up to now;
// Before can only move the cutoff back.
type SweepRequest struct {
	Before *time.Time `json:"before,omitempty"`
}

type SweepReply struct {
	Removed int64  `json:"removed"`
	Error   string `json:"error,omitempty"`
}

// SweepTrigger subscribes to a subject in a queue group so that each trigger
// is handled by exactly one instance.
type SweepTrigger struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	sweeper Sweeper
	subject string
	queue   string
	timeout time.Duration
	now     func() time.Time
}

func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("tinylink"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Get().Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Get().Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return conn, nil
}

func NewSweepTrigger(conn *nats.Conn, sweeper Sweeper, subject, queue string) *SweepTrigger {
	return &SweepTrigger{
		conn:    conn,
		sweeper: sweeper,
		subject: subject,
		queue:   queue,
		timeout: defaultSweepTimeout,
		now:     time.Now,
	}
}

func (t *SweepTrigger) Start() error {
	sub, err := t.conn.QueueSubscribe(t.subject, t.queue, t.onMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", t.subject, err)
	}
	t.sub = sub

	logger.Get().Info("Listening for sweep triggers",
		slog.String("subject", t.subject),
		slog.String("queue", t.queue),
	)

	return nil
}

// Stop drains the subscription so an in-flight sweep can finish.
func (t *SweepTrigger) Stop() error {
	if t.sub == nil {
		return nil
	}
	return t.sub.Drain()
}

func (t *SweepTrigger) onMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	ctx = logger.WithRequestID(ctx, logger.NewRequestID())
	ctx = logger.WithAttrs(ctx, slog.String("subject", msg.Subject))

	reply := t.Handle(ctx, msg)

	if msg.Reply == "" {
		return
	}

	data, err := json.Marshal(reply)
	if err != nil {
		return
	}
	if err := msg.Respond(data); err != nil {
		logger.FromContext(ctx).Warn("Failed to reply to sweep trigger", slog.String("error", err.Error()))
	}
}

// Handle runs one sweep for msg and reports the outcome.
func (t *SweepTrigger) Handle(ctx context.Context, msg *nats.Msg) SweepReply {
	log := logger.FromContext(ctx)

	cutoff := t.now()
	if len(msg.Data) > 0 {
		var req SweepRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Warn("Ignoring malformed sweep trigger", slog.String("error", err.Error()))
			return SweepReply{Error: "malformed sweep request"}
		}
		// the cutoff never moves past now
		switch {
		case req.Before == nil:
		case req.Before.After(cutoff):
			log.Warn("Sweep cutoff is in the future, sweeping up to now",
				slog.Time("before", *req.Before),
			)
		default:
			cutoff = *req.Before
		}
	}

	removed, err := t.sweeper.Sweep(ctx, cutoff)
	if err != nil {
		log.Error("Triggered sweep failed", slog.String("error", err.Error()))
		return SweepReply{Error: err.Error()}
	}

	log.Info("Triggered sweep finished", slog.Int64("removed", removed))

	return SweepReply{Removed: removed}
}
