package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/observability"
	"github.com/noah-isme/coursetrack-api/internal/queue"
	"github.com/noah-isme/coursetrack-api/internal/service"
	"github.com/noah-isme/coursetrack-api/pkg/mailer"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error

	// when set, Send signals entered and waits for release or ctx
	entered chan struct{}
	release chan struct{}
}

func (s *fakeSender) Send(ctx context.Context, msg mailer.Message) (string, error) {
	if s.release != nil {
		s.entered <- struct{}{}
		select {
		case <-s.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "msg-1", nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeScheduler struct {
	overdueRuns  atomic.Int32
	deadlineRuns atomic.Int32
	overdue      int

	overdueEntered chan struct{}
	overdueRelease chan struct{}
	overdueDone    chan error
}

func (s *fakeScheduler) CheckOverdueActivityLogs(ctx context.Context) (int, error) {
	s.overdueRuns.Add(1)
	if s.overdueRelease != nil {
		s.overdueEntered <- struct{}{}
		<-s.overdueRelease
		s.overdueDone <- ctx.Err()
	}
	return s.overdue, nil
}

func (s *fakeScheduler) NotifyUpcomingDeadlines(context.Context) (int, error) {
	s.deadlineRuns.Add(1)
	return 0, nil
}

type fakeInbox struct {
	mu           sync.Mutex
	messages     []service.InboxMessage
	correlations []string
}

func (i *fakeInbox) Publish(ctx context.Context, msg service.InboxMessage) (dto.NotificationResponse, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = append(i.messages, msg)
	i.correlations = append(i.correlations, observability.CorrelationID(ctx))
	return dto.NotificationResponse{ID: uint(len(i.messages)), UserID: msg.UserID}, nil
}

type harness struct {
	worker    *NotificationWorker
	queue     *queue.NotificationQueue
	sender    *fakeSender
	scheduler *fakeScheduler
	inbox     *fakeInbox
}

func newHarness(t *testing.T) harness {
	t.Helper()
	// Long intervals keep the scheduled lanes out of the way of manual triggers.
	return newHarnessWith(t, Options{PollInterval: time.Hour, OverdueInterval: time.Hour}, &fakeSender{}, &fakeScheduler{overdue: 2})
}

func newHarnessWith(t *testing.T, opts Options, sender *fakeSender, scheduler *fakeScheduler) harness {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	q, err := queue.New(client, queue.Options{}, zerolog.Nop())
	require.NoError(t, err)

	h := harness{queue: q, sender: sender, scheduler: scheduler, inbox: &fakeInbox{}}
	h.worker = NewNotificationWorker(q, h.scheduler, h.sender, h.inbox, opts, zerolog.Nop())
	t.Cleanup(func() {
		if h.worker.IsRunning() {
			h.worker.Stop()
		}
	})
	return h
}

func reminder() models.NotificationData {
	return models.NotificationData{
		Recipient: models.Recipient{ID: 3, UserID: 30, Email: "ada@example.com", Name: "Ada Lovelace"},
		Message:   models.NotificationMessage{Subject: "Week 2 log due", Body: "Please submit", Priority: models.PriorityHigh},
		Reminder:  &models.ReminderPayload{FacilitatorID: 3, WeekNumber: 2},
	}
}

func TestManualTriggersRequireRunningWorker(t *testing.T) {
	h := newHarness(t)

	_, err := h.worker.TriggerOverdueCheck(context.Background())
	require.ErrorIs(t, err, ErrNotRunning)

	_, err = h.worker.ProcessQueue(context.Background(), models.NotificationReminder)
	require.ErrorIs(t, err, ErrNotRunning)
}

func TestStartRunsOverdueCheckAndReportsLanes(t *testing.T) {
	h := newHarness(t)

	h.worker.Start()
	h.worker.Start()

	require.Eventually(t, func() bool { return h.scheduler.overdueRuns.Load() >= 1 }, time.Second, 10*time.Millisecond)

	status := h.worker.Status()
	require.True(t, status.IsRunning)
	require.True(t, status.OverdueCheckActive)
	require.Len(t, status.Workers, 4)
	for _, lane := range status.Workers {
		require.True(t, lane.IsActive, lane.Type)
	}
	require.Equal(t, "REMINDER", status.Workers[0].Type)

	count, err := h.worker.TriggerOverdueCheck(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)

	h.worker.Stop()
	h.worker.Stop()

	status = h.worker.Status()
	require.False(t, status.IsRunning)
	require.False(t, status.OverdueCheckActive)
	for _, lane := range status.Workers {
		require.False(t, lane.IsActive, lane.Type)
	}
}

func TestProcessQueueDeliversAndPublishesToInbox(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	jobID, err := h.queue.Enqueue(ctx, models.NotificationReminder, reminder())
	require.NoError(t, err)

	h.worker.Start()
	outcome, err := h.worker.ProcessQueue(ctx, models.NotificationReminder)
	require.NoError(t, err)
	require.NotNil(t, outcome)
	require.Equal(t, jobID, outcome.JobID)
	require.Equal(t, models.DeliveryDelivered, outcome.Status)

	require.Len(t, h.sender.sent, 1)
	require.Equal(t, "ada@example.com", h.sender.sent[0].To.Email)
	require.Equal(t, "Week 2 log due", h.sender.sent[0].Subject)

	require.Len(t, h.inbox.messages, 1)
	require.Equal(t, uint(30), h.inbox.messages[0].UserID)
	require.Equal(t, jobID, h.inbox.messages[0].JobID)
	require.Equal(t, "high", h.inbox.messages[0].Priority)

	status, err := h.queue.DeliveryStatus(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, models.DeliveryDelivered, status.Status)

	outcome, err = h.worker.ProcessQueue(ctx, models.NotificationReminder)
	require.NoError(t, err)
	require.Nil(t, outcome)
}

func TestFailedDeliveryIsRecordedAndNotRequeued(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.sender.err = errors.New("smtp down")

	jobID, err := h.queue.Enqueue(ctx, models.NotificationReminder, reminder())
	require.NoError(t, err)

	h.worker.Start()
	outcome, err := h.worker.ProcessQueue(ctx, models.NotificationReminder)
	require.NoError(t, err)
	require.Equal(t, models.DeliveryFailed, outcome.Status)
	require.EqualError(t, outcome.Err, "smtp down")
	require.Empty(t, h.inbox.messages)

	status, err := h.queue.DeliveryStatus(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, models.DeliveryFailed, status.Status)
	require.Equal(t, "smtp down", status.Error)

	depth, err := h.queue.Length(ctx, models.NotificationReminder)
	require.NoError(t, err)
	require.Zero(t, depth)
}

func TestProcessQueueRejectsUnknownType(t *testing.T) {
	h := newHarness(t)
	h.worker.Start()

	_, err := h.worker.ProcessQueue(context.Background(), models.NotificationType("DIGEST"))
	require.ErrorIs(t, err, models.ErrUnknownNotificationType)
}

func TestPollLaneDrainsQueueOnSchedule(t *testing.T) {
	h := newHarnessWith(t, Options{PollInterval: time.Second, OverdueInterval: time.Hour}, &fakeSender{}, &fakeScheduler{})
	ctx := context.Background()

	jobID, err := h.queue.Enqueue(ctx, models.NotificationReminder, reminder())
	require.NoError(t, err)

	h.worker.Start()

	require.Eventually(t, func() bool { return h.sender.count() == 1 }, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		status, err := h.queue.DeliveryStatus(ctx, jobID)
		return err == nil && status != nil && status.Status == models.DeliveryDelivered
	}, time.Second, 10*time.Millisecond)

	depth, err := h.queue.Length(ctx, models.NotificationReminder)
	require.NoError(t, err)
	require.Zero(t, depth)
}

func TestStopLetsClaimedJobFinish(t *testing.T) {
	sender := &fakeSender{entered: make(chan struct{}, 1), release: make(chan struct{})}
	h := newHarnessWith(t, Options{PollInterval: time.Second, OverdueInterval: time.Hour}, sender, &fakeScheduler{})
	ctx := context.Background()

	jobID, err := h.queue.Enqueue(ctx, models.NotificationReminder, reminder())
	require.NoError(t, err)

	h.worker.Start()
	select {
	case <-sender.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled lane never claimed the job")
	}

	h.worker.Stop()
	close(sender.release)

	require.Eventually(t, func() bool {
		status, err := h.queue.DeliveryStatus(ctx, jobID)
		return err == nil && status != nil && status.Status == models.DeliveryDelivered
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, sender.count())
}

func TestStopLetsRunningOverdueScanFinish(t *testing.T) {
	scheduler := &fakeScheduler{
		overdueEntered: make(chan struct{}, 1),
		overdueRelease: make(chan struct{}),
		overdueDone:    make(chan error, 1),
	}
	h := newHarnessWith(t, Options{PollInterval: time.Hour, OverdueInterval: time.Hour}, &fakeSender{}, scheduler)

	h.worker.Start()
	select {
	case <-scheduler.overdueEntered:
	case <-time.After(2 * time.Second):
		t.Fatal("start did not run the overdue scan")
	}

	h.worker.Stop()
	close(scheduler.overdueRelease)

	select {
	case err := <-scheduler.overdueDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("overdue scan did not finish")
	}
}

func TestDeliveryCarriesRequestCorrelationID(t *testing.T) {
	h := newHarness(t)
	requestCtx := observability.WithCorrelationID(context.Background(), "req-submit-9")

	_, err := h.queue.Enqueue(requestCtx, models.NotificationReminder, reminder())
	require.NoError(t, err)

	h.worker.Start()
	outcome, err := h.worker.ProcessQueue(context.Background(), models.NotificationReminder)
	require.NoError(t, err)
	require.Equal(t, models.DeliveryDelivered, outcome.Status)
	require.Equal(t, []string{"req-submit-9"}, h.inbox.correlations)
}
