package services

import (
	"context"
	"sync"
	"time"

	"tailorshop/internal/events"
	"tailorshop/internal/store"
	"tailorshop/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type auditCall struct {
	actorID    string
	action     string
	entityType string
	entityID   string
	data       string
}

type recordingAudit struct {
	mu    sync.Mutex
	calls []auditCall
	err   error
}

func (r *recordingAudit) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, auditCall{actorID, action, entityType, entityID, data})
	return nil
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, call := range r.calls {
		out = append(out, call.action)
	}
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []websocket.Message
}

func (r *recordingNotifier) Broadcast(message websocket.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.messages))
	for _, message := range r.messages {
		out = append(out, message.Type)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Type)
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
