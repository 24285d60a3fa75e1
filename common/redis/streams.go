package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// StreamPublisher appends JSON events to one Redis stream, trimming it to about MaxLen entries.
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStreamPublisher(client *redis.Client, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *StreamPublisher) Stream() string { return p.stream }

// PublishJSON writes {event, data, timestamp} with XADD and returns the entry id.
func (p *StreamPublisher) PublishJSON(ctx context.Context, event string, data any) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal stream payload: %w", err)
	}
	return PublishToStream(ctx, p.client, p.stream, p.maxLen, map[string]any{
		"event":     event,
		"data":      string(payload),
		"timestamp": time.Now().Unix(),
	})
}

// PublishToStream adds one entry, stringifying every value.
func PublishToStream(ctx context.Context, client *redis.Client, stream string, maxLen int64, values map[string]any) (string, error) {
	fields := make(map[string]any, len(values))
	for k, v := range values {
		s, err := streamValue(v)
		if err != nil {
			return "", fmt.Errorf("stream field %s: %w", k, err)
		}
		fields[k] = s
	}
	args := &redis.XAddArgs{Stream: stream, Values: fields}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}
	return client.XAdd(ctx, args).Result()
}

func streamValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
