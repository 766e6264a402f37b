package processor

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpulse/notification-engine/internal/compliance"
	gateway "github.com/classpulse/notification-engine/internal/gateways"
	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/internal/repository"
	"github.com/classpulse/notification-engine/internal/retry"
	"github.com/classpulse/notification-engine/pkg/clock"
)

/* --------------------------------- Fakes ------------------------------------ */

type fakeQueueStore struct {
	mu      sync.Mutex
	entries map[string]*model.QueueEntry
}

func newFakeQueueStore() *fakeQueueStore {
	return &fakeQueueStore{entries: make(map[string]*model.QueueEntry)}
}

func (s *fakeQueueStore) add(e *model.QueueEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.entries[e.ID] = &cp
}

func (s *fakeQueueStore) get(id string) *model.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.entries[id]
	return &cp
}

func (s *fakeQueueStore) ListDue(_ context.Context, now time.Time, limit int) ([]*model.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []*model.QueueEntry
	for _, e := range s.entries {
		if e.Due(now) {
			cp := *e
			due = append(due, &cp)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *fakeQueueStore) ListByMessage(_ context.Context, messageID string) ([]*model.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.QueueEntry
	for _, e := range s.entries {
		if e.MessageID == messageID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeQueueStore) MarkSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[id]
	e.Status = model.QueueEntryStatusSent
	e.NextAttemptAt = nil
	return nil
}

func (s *fakeQueueStore) MarkDead(_ context.Context, id string, attempts int, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[id]
	e.Status = model.QueueEntryStatusDead
	e.Attempts = attempts
	e.NextAttemptAt = nil
	e.LastError = lastError
	return nil
}

func (s *fakeQueueStore) Reschedule(_ context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[id]
	e.Status = model.QueueEntryStatusPending
	e.Attempts = attempts
	e.NextAttemptAt = &nextAttemptAt
	e.LastError = lastError
	return nil
}

type fakeMessageStore struct {
	mu       sync.Mutex
	messages map[string]*model.Message
}

func newFakeMessageStore(msgs ...*model.Message) *fakeMessageStore {
	s := &fakeMessageStore{messages: make(map[string]*model.Message)}
	for _, m := range msgs {
		s.messages[m.ID] = m
	}
	return s
}

func (s *fakeMessageStore) Get(_ context.Context, id string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *fakeMessageStore) UpdateStatusFrom(_ context.Context, id string, status model.MessageStatus, from ...model.MessageStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if m.Status == f {
			m.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeMessageStore) status(id string) model.MessageStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[id].Status
}

type fakeDeliveryStore struct {
	mu      sync.Mutex
	records []*model.DeliveryRecord
	events  []string
	err     error
}

func (s *fakeDeliveryStore) CreateRecord(_ context.Context, record *model.DeliveryRecord, eventTypes []string) (*model.DeliveryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.records = append(s.records, record)
	s.events = append(s.events, eventTypes...)
	return record, nil
}

type fakeDeadLetterStore struct {
	mu      sync.Mutex
	byEntry map[string]*model.DeadLetter
}

func newFakeDeadLetterStore() *fakeDeadLetterStore {
	return &fakeDeadLetterStore{byEntry: make(map[string]*model.DeadLetter)}
}

func (s *fakeDeadLetterStore) Create(_ context.Context, dl *model.DeadLetter) (*model.DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byEntry[dl.QueueEntryID]; ok {
		return existing, nil
	}
	s.byEntry[dl.QueueEntryID] = dl
	return dl, nil
}

func (s *fakeDeadLetterStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byEntry)
}

type stubGate struct {
	err   error
	calls int
}

func (g *stubGate) Check(_ context.Context, _, _ string, _ model.Channel) error {
	g.calls++
	return g.err
}

type stubSender struct {
	mu    sync.Mutex
	resp  *gateway.SendResponse
	err   error
	calls int
}

func (s *stubSender) Send(_ context.Context, _ *gateway.SendRequest) (*gateway.SendResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

/* --------------------------------- Tests ------------------------------------ */

type fixture struct {
	queue       *fakeQueueStore
	messages    *fakeMessageStore
	deliveries  *fakeDeliveryStore
	deadLetters *fakeDeadLetterStore
	gate        *stubGate
	sender      *stubSender
	clock       *clock.Fake
	processor   *BatchProcessor
}

func newFixture(t *testing.T, msgs ...*model.Message) *fixture {
	t.Helper()
	f := &fixture{
		queue:       newFakeQueueStore(),
		messages:    newFakeMessageStore(msgs...),
		deliveries:  &fakeDeliveryStore{},
		deadLetters: newFakeDeadLetterStore(),
		gate:        &stubGate{},
		sender: &stubSender{resp: &gateway.SendResponse{
			Status:      "delivered",
			DeliveredAt: time.Now().UTC(),
		}},
		clock: clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
	f.processor = NewBatchProcessor(
		f.queue, f.messages, f.deliveries, f.deadLetters, f.gate, f.sender,
		f.clock, 25, retry.Options{BaseDelay: time.Second, MaxDelay: time.Minute},
	)
	return f
}

func queuedMessage(id string) *model.Message {
	return &model.Message{
		ID:       id,
		TenantID: "district-1",
		Channel:  model.ChannelEmail,
		Body:     "body",
		Status:   model.MessageStatusQueued,
	}
}

func pendingEntry(id, messageID string, now time.Time) *model.QueueEntry {
	return &model.QueueEntry{
		ID:            id,
		MessageID:     messageID,
		RecipientID:   "rec-" + id,
		Channel:       model.ChannelEmail,
		Status:        model.QueueEntryStatusPending,
		MaxAttempts:   3,
		NextAttemptAt: &now,
		CreatedAt:     now,
	}
}

func TestBatchProcessor_SuccessPath(t *testing.T) {
	f := newFixture(t, queuedMessage("msg-1"))
	now := f.clock.Now()
	f.queue.add(pendingEntry("e1", "msg-1", now))

	require.NoError(t, f.processor.ProcessBatch(context.Background()))

	e := f.queue.get("e1")
	assert.Equal(t, model.QueueEntryStatusSent, e.Status)
	assert.Nil(t, e.NextAttemptAt)

	require.Len(t, f.deliveries.records, 1)
	assert.Equal(t, "msg-1", f.deliveries.records[0].MessageID)
	assert.Equal(t, []string{model.DeliveryEventDelivered}, f.deliveries.events)

	assert.Equal(t, model.MessageStatusSent, f.messages.status("msg-1"))
	assert.EqualValues(t, 1, f.processor.Metrics().GetStats()["total_sent"])
}

func TestBatchProcessor_ProviderEventsStored(t *testing.T) {
	f := newFixture(t, queuedMessage("msg-1"))
	f.sender.resp.Events = []string{model.DeliveryEventDelivered, model.DeliveryEventOpened}
	f.queue.add(pendingEntry("e1", "msg-1", f.clock.Now()))

	require.NoError(t, f.processor.ProcessBatch(context.Background()))

	assert.Equal(t, []string{model.DeliveryEventDelivered, model.DeliveryEventOpened}, f.deliveries.events)
}

func TestBatchProcessor_RetryableFailure(t *testing.T) {
	f := newFixture(t, queuedMessage("msg-1"))
	now := f.clock.Now()
	f.queue.add(pendingEntry("e1", "msg-1", now))
	f.sender.err = errors.New("TIMEOUT: delivery timed out")

	require.NoError(t, f.processor.ProcessBatch(context.Background()))

	e := f.queue.get("e1")
	assert.Equal(t, model.QueueEntryStatusPending, e.Status)
	assert.Equal(t, 1, e.Attempts)
	require.NotNil(t, e.NextAttemptAt)
	// first retry backs off with exponent 1: base * 2
	assert.Equal(t, now.Add(2*time.Second), *e.NextAttemptAt)
	assert.Contains(t, e.LastError, "TIMEOUT")

	assert.Zero(t, f.deadLetters.count())
	assert.Equal(t, model.MessageStatusProcessing, f.messages.status("msg-1"))
}

func TestBatchProcessor_EntryNotRetriedBeforeBackoff(t *testing.T) {
	f := newFixture(t, queuedMessage("msg-1"))
	f.queue.add(pendingEntry("e1", "msg-1", f.clock.Now()))
	f.sender.err = errors.New("boom")

	require.NoError(t, f.processor.ProcessBatch(context.Background()))
	assert.Equal(t, 1, f.sender.calls)

	// not yet due, a second tick must not touch it
	require.NoError(t, f.processor.ProcessBatch(context.Background()))
	assert.Equal(t, 1, f.sender.calls)

	f.clock.Advance(5 * time.Second)
	require.NoError(t, f.processor.ProcessBatch(context.Background()))
	assert.Equal(t, 2, f.sender.calls)
}

func TestBatchProcessor_Exhaustion(t *testing.T) {
	f := newFixture(t, queuedMessage("msg-1"))
	f.queue.add(pendingEntry("e1", "msg-1", f.clock.Now()))
	f.sender.err = errors.New("permanent outage")

	// drive the entry through its whole retry budget
	for i := 0; i < 10; i++ {
		require.NoError(t, f.processor.ProcessBatch(context.Background()))
		f.clock.Advance(time.Minute)
	}

	e := f.queue.get("e1")
	assert.Equal(t, model.QueueEntryStatusDead, e.Status)
	assert.Equal(t, e.MaxAttempts, e.Attempts)
	assert.Nil(t, e.NextAttemptAt)

	assert.Equal(t, 1, f.deadLetters.count())
	assert.Equal(t, model.MessageStatusPartialFailed, f.messages.status("msg-1"))

	// attempts stop at the cap, the final failure is what goes dead
	assert.Equal(t, e.MaxAttempts, f.sender.calls)
}

func TestBatchProcessor_ComplianceRejection(t *testing.T) {
	f := newFixture(t, queuedMessage("msg-1"))
	now := f.clock.Now()
	entry := pendingEntry("e1", "msg-1", now)
	entry.Attempts = 1
	f.queue.add(entry)
	f.gate.err = &compliance.RejectionError{Reason: "sms channel requires explicit tenant opt-in"}

	require.NoError(t, f.processor.ProcessBatch(context.Background()))

	e := f.queue.get("e1")
	assert.Equal(t, model.QueueEntryStatusDead, e.Status)
	// a rejection is not an attempt
	assert.Equal(t, 1, e.Attempts)
	assert.Zero(t, f.sender.calls)

	require.Equal(t, 1, f.deadLetters.count())
	dl := f.deadLetters.byEntry["e1"]
	assert.Contains(t, dl.Error, "opt-in")
}

func TestBatchProcessor_ComplianceLookupFailure(t *testing.T) {
	f := newFixture(t, queuedMessage("msg-1"))
	f.queue.add(pendingEntry("e1", "msg-1", f.clock.Now()))
	f.gate.err = errors.New("settings store unavailable")

	require.NoError(t, f.processor.ProcessBatch(context.Background()))

	// entry untouched: still pending, no attempt burned, no dead letter
	e := f.queue.get("e1")
	assert.Equal(t, model.QueueEntryStatusPending, e.Status)
	assert.Zero(t, e.Attempts)
	assert.Zero(t, f.sender.calls)
	assert.Zero(t, f.deadLetters.count())
}

func TestBatchProcessor_OrphanedEntry(t *testing.T) {
	f := newFixture(t) // no messages at all
	f.queue.add(pendingEntry("e1", "ghost-msg", f.clock.Now()))

	require.NoError(t, f.processor.ProcessBatch(context.Background()))

	e := f.queue.get("e1")
	assert.Equal(t, model.QueueEntryStatusDead, e.Status)
	assert.Equal(t, 1, f.deadLetters.count())
	assert.Zero(t, f.sender.calls)
}

func TestBatchProcessor_MixedOutcomesPartialFailed(t *testing.T) {
	f := newFixture(t, queuedMessage("msg-1"))
	now := f.clock.Now()

	ok := pendingEntry("ok", "msg-1", now)
	doomed := pendingEntry("doomed", "msg-1", now.Add(-time.Millisecond))
	doomed.Attempts = doomed.MaxAttempts - 1
	f.queue.add(ok)
	f.queue.add(doomed)

	sent := false
	sender := &flakySender{
		send: func(req *gateway.SendRequest) (*gateway.SendResponse, error) {
			if req.RecipientID == "rec-ok" && !sent {
				sent = true
				return &gateway.SendResponse{Status: "delivered", DeliveredAt: now}, nil
			}
			return nil, errors.New("unreachable")
		},
	}
	f.processor = NewBatchProcessor(
		f.queue, f.messages, f.deliveries, f.deadLetters, f.gate, sender,
		f.clock, 25, retry.Options{BaseDelay: time.Second, MaxDelay: time.Minute},
	)

	require.NoError(t, f.processor.ProcessBatch(context.Background()))

	assert.Equal(t, model.QueueEntryStatusSent, f.queue.get("ok").Status)
	assert.Equal(t, model.QueueEntryStatusDead, f.queue.get("doomed").Status)
	assert.Equal(t, model.MessageStatusPartialFailed, f.messages.status("msg-1"))
}

type flakySender struct {
	send func(req *gateway.SendRequest) (*gateway.SendResponse, error)
}

func (s *flakySender) Send(_ context.Context, req *gateway.SendRequest) (*gateway.SendResponse, error) {
	return s.send(req)
}

func TestBatchProcessor_TerminalMessageNotResurrected(t *testing.T) {
	msg := queuedMessage("msg-1")
	msg.Status = model.MessageStatusSent
	f := newFixture(t, msg)

	entry := pendingEntry("late", "msg-1", f.clock.Now())
	f.queue.add(entry)
	f.sender.err = errors.New("boom")

	require.NoError(t, f.processor.ProcessBatch(context.Background()))

	// the reducer says processing, but sent is terminal for the recompute
	assert.Equal(t, model.MessageStatusSent, f.messages.status("msg-1"))
}

func TestBatchProcessor_DeliveryRecordFailureStillMarksSent(t *testing.T) {
	f := newFixture(t, queuedMessage("msg-1"))
	f.queue.add(pendingEntry("e1", "msg-1", f.clock.Now()))
	f.deliveries.err = errors.New("disk full")

	require.NoError(t, f.processor.ProcessBatch(context.Background()))

	assert.Equal(t, model.QueueEntryStatusSent, f.queue.get("e1").Status)
	assert.Equal(t, 1, f.sender.calls)
}

func TestBatchProcessor_BatchLimit(t *testing.T) {
	f := newFixture(t, queuedMessage("msg-1"))
	now := f.clock.Now()
	for i := 0; i < 5; i++ {
		f.queue.add(pendingEntry(string(rune('a'+i)), "msg-1", now.Add(-time.Duration(i)*time.Millisecond)))
	}
	f.processor = NewBatchProcessor(
		f.queue, f.messages, f.deliveries, f.deadLetters, f.gate, f.sender,
		f.clock, 2, retry.Options{},
	)

	require.NoError(t, f.processor.ProcessBatch(context.Background()))
	assert.Equal(t, 2, f.sender.calls)
}

func TestReduceMessageStatus(t *testing.T) {
	mk := func(statuses ...model.QueueEntryStatus) []*model.QueueEntry {
		entries := make([]*model.QueueEntry, len(statuses))
		for i, s := range statuses {
			entries[i] = &model.QueueEntry{Status: s}
		}
		return entries
	}

	tests := []struct {
		name    string
		entries []*model.QueueEntry
		want    model.MessageStatus
		ok      bool
	}{
		{"no entries leaves status alone", nil, "", false},
		{"any pending means processing", mk(model.QueueEntryStatusSent, model.QueueEntryStatusPending, model.QueueEntryStatusDead), model.MessageStatusProcessing, true},
		{"dead without pending means partial failure", mk(model.QueueEntryStatusSent, model.QueueEntryStatusDead), model.MessageStatusPartialFailed, true},
		{"all dead is still partial failure", mk(model.QueueEntryStatusDead, model.QueueEntryStatusDead), model.MessageStatusPartialFailed, true},
		{"all sent means sent", mk(model.QueueEntryStatusSent, model.QueueEntryStatusSent), model.MessageStatusSent, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ReduceMessageStatus(tt.entries)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
