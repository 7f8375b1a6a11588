package queue

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/observability"
)

const (
	defaultPrefix    = "notification"
	defaultStatusTTL = 7 * 24 * time.Hour
	schemaURL        = "mem://notification_job.schema.json"
)

var (
	// ErrStoreUnavailable wraps any failure talking to Redis.
	ErrStoreUnavailable = errors.New("notification store unavailable")
	// ErrMalformedJob is returned when a dequeued payload fails decoding or validation. The job is gone.
	ErrMalformedJob = errors.New("malformed notification job")
)

//go:embed notification_job.schema.json
var jobSchema []byte

// Options tunes key naming and retention.
type Options struct {
	Prefix      string
	StatusTTL   time.Duration
	MaxAttempts int
}

// NotificationQueue is a Redis list per notification type. Producers LPUSH, consumers pop from
// the tail so each type drains oldest first. A pop is a permanent claim.
type NotificationQueue struct {
	client      *redis.Client
	prefix      string
	statusTTL   time.Duration
	maxAttempts int
	schema      *jsonschema.Schema
	logger      zerolog.Logger
	now         func() time.Time
}

// New constructs a queue bound to the given Redis client.
func New(client *redis.Client, opts Options, logger zerolog.Logger) (*NotificationQueue, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(jobSchema)); err != nil {
		return nil, fmt.Errorf("load job schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile job schema: %w", err)
	}

	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	ttl := opts.StatusTTL
	if ttl <= 0 {
		ttl = defaultStatusTTL
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = models.DefaultJobMaxAttempts
	}

	return &NotificationQueue{
		client:      client,
		prefix:      prefix,
		statusTTL:   ttl,
		maxAttempts: maxAttempts,
		schema:      schema,
		logger:      logger.With().Str("component", "notification_queue").Logger(),
		now:         time.Now,
	}, nil
}

// QueueKey returns the Redis list key for a type, e.g. "notification:reminder".
func (q *NotificationQueue) QueueKey(t models.NotificationType) string {
	return q.prefix + ":" + t.Lower()
}

func (q *NotificationQueue) statusKey(jobID string) string {
	return q.prefix + ":status:" + jobID
}

// Enqueue pushes a new job and returns its id.
func (q *NotificationQueue) Enqueue(ctx context.Context, t models.NotificationType, data models.NotificationData) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", models.ErrUnknownNotificationType, t)
	}
	if err := data.Validate(t); err != nil {
		return "", err
	}
	if data.Message.Priority == "" {
		data.Message.Priority = models.PriorityNormal
	}

	now := q.now().UTC()
	job := models.NotificationJob{
		ID:            newJobID(t, now),
		Type:          t,
		Data:          data,
		Timestamp:     now,
		Attempts:      0,
		MaxAttempts:   q.maxAttempts,
		CorrelationID: observability.CorrelationID(ctx),
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}
	if err := q.validateDocument(payload); err != nil {
		return "", err
	}

	if err := q.client.LPush(ctx, q.QueueKey(t), payload).Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	q.logger.Debug().
		Str("job_id", job.ID).
		Str("type", string(t)).
		Str("correlation_id", job.CorrelationID).
		Msg("notification enqueued")
	return job.ID, nil
}

// DequeueBlocking waits until a job of the given type is available or ctx ends.
func (q *NotificationQueue) DequeueBlocking(ctx context.Context, t models.NotificationType) (*models.NotificationJob, error) {
	result, err := q.client.BRPop(ctx, 0, q.QueueKey(t)).Result()
	if err != nil {
		return nil, popError(ctx, err)
	}
	return q.decode(t, []byte(result[1]))
}

// popError returns ctx.Err() unwrapped once the caller has given up.
func popError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// Dequeue performs a single poll. A zero wait checks without blocking. It returns (nil, nil)
// when the queue is empty.
func (q *NotificationQueue) Dequeue(ctx context.Context, t models.NotificationType, wait time.Duration) (*models.NotificationJob, error) {
	var raw string
	if wait <= 0 {
		value, err := q.client.RPop(ctx, q.QueueKey(t)).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, popError(ctx, err)
		}
		raw = value
	} else {
		result, err := q.client.BRPop(ctx, wait, q.QueueKey(t)).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, popError(ctx, err)
		}
		raw = result[1]
	}
	return q.decode(t, []byte(raw))
}

// Length reports how many jobs are waiting for a type.
func (q *NotificationQueue) Length(ctx context.Context, t models.NotificationType) (int64, error) {
	n, err := q.client.LLen(ctx, q.QueueKey(t)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return n, nil
}

// Lengths reports queue depth for every type.
func (q *NotificationQueue) Lengths(ctx context.Context) (map[models.NotificationType]int64, error) {
	depths := make(map[models.NotificationType]int64, 3)
	for _, t := range models.NotificationTypes() {
		n, err := q.Length(ctx, t)
		if err != nil {
			return nil, err
		}
		depths[t] = n
	}
	return depths, nil
}

// RecordDeliveryStatus stores the outcome of a job. Last write wins.
func (q *NotificationQueue) RecordDeliveryStatus(ctx context.Context, jobID, status string, cause error) error {
	entry := models.DeliveryStatus{
		JobID:      jobID,
		Status:     status,
		RecordedAt: q.now().UTC(),
	}
	if cause != nil {
		entry.Error = cause.Error()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode delivery status: %w", err)
	}

	if err := q.client.Set(ctx, q.statusKey(jobID), payload, q.statusTTL).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// DeliveryStatus returns the recorded outcome, or nil when missing or expired.
func (q *NotificationQueue) DeliveryStatus(ctx context.Context, jobID string) (*models.DeliveryStatus, error) {
	raw, err := q.client.Get(ctx, q.statusKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var entry models.DeliveryStatus
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode delivery status: %w", err)
	}
	return &entry, nil
}

func (q *NotificationQueue) decode(t models.NotificationType, raw []byte) (*models.NotificationJob, error) {
	if err := q.validateDocument(raw); err != nil {
		return nil, err
	}

	var job models.NotificationJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJob, err)
	}
	if job.Type != t {
		return nil, fmt.Errorf("%w: %s job found on %s queue", ErrMalformedJob, job.Type, t)
	}
	if err := job.Data.Validate(job.Type); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJob, err)
	}
	return &job, nil
}

func (q *NotificationQueue) validateDocument(raw []byte) error {
	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJob, err)
	}
	if err := q.schema.Validate(document); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJob, err)
	}
	return nil
}

func newJobID(t models.NotificationType, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", t.Lower(), now.UnixMilli(), suffix)
}
