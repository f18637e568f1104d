package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const lastResponseKey = "igvalue:last_ai_response"

// AIRecord is one raw model exchange kept for debugging.
type AIRecord struct {
	AnalysisID string    `json:"analysis_id,omitempty"`
	Provider   string    `json:"provider"`
	Purpose    string    `json:"purpose"`
	Text       string    `json:"text"`
	Error      string    `json:"error,omitempty"`
	Disabled   bool      `json:"disabled"`
	DurationMS int64     `json:"duration_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ResponseSink keeps the most recent model response for /debug/last_ai.
type ResponseSink interface {
	Record(ctx context.Context, record AIRecord) error
	// Last returns nil without error when nothing was recorded yet.
	Last(ctx context.Context) (*AIRecord, error)
}

type memorySink struct {
	mu   sync.RWMutex
	last *AIRecord
}

func NewMemorySink() ResponseSink {
	return &memorySink{}
}

func (m *memorySink) Record(_ context.Context, record AIRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = &record
	return nil
}

func (m *memorySink) Last(_ context.Context) (*AIRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return nil, nil
	}
	record := *m.last
	return &record, nil
}

type redisSink struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSink shares the last response across API replicas.
func NewRedisSink(client *redis.Client, ttl time.Duration) ResponseSink {
	return &redisSink{client: client, ttl: ttl}
}

func (r *redisSink) Record(ctx context.Context, record AIRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal ai record: %w", err)
	}
	if err := r.client.Set(ctx, lastResponseKey, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store ai record: %w", err)
	}
	return nil
}

func (r *redisSink) Last(ctx context.Context) (*AIRecord, error) {
	payload, err := r.client.Get(ctx, lastResponseKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ai record: %w", err)
	}

	var record AIRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ai record: %w", err)
	}
	return &record, nil
}
