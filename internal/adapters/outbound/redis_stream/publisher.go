package redis_stream

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/charleschow/lol-valuebets/internal/events"
	"github.com/charleschow/lol-valuebets/internal/fanout"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

const (
	DefaultStream = "bets.events"
	defaultMaxLen = 10000
	publishWait   = 3 * time.Second
)

// Connect parses a redis:// URL and verifies the server answers PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Publisher appends ledger events to a capped Redis stream so downstream
// consumers can follow bets without polling the database.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{client: client, stream: stream, maxLen: defaultMaxLen}
}

// Subscribe forwards bet lifecycle and pass summaries from the bus.
func (p *Publisher) Subscribe(bus *events.Bus) {
	handler := func(evt events.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), publishWait)
		defer cancel()
		return p.Publish(ctx, evt)
	}
	bus.Subscribe(events.EventBetCreated, handler)
	bus.Subscribe(events.EventBetSettled, handler)
	bus.Subscribe(events.EventPassCompleted, handler)
}

func (p *Publisher) Publish(ctx context.Context, evt events.Event) error {
	values, err := streamValues(evt)
	if err != nil {
		return err
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	telemetry.Debugf("redis_stream: %s %s -> %s", evt.Type, evt.ID, p.stream)
	return nil
}

// streamValues flattens an event into stream fields. The fanout envelope is
// kept under "data"; bet_id and status are copied out for consumer filtering.
func streamValues(evt events.Event) (map[string]interface{}, error) {
	data, err := fanout.MarshalEvent(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", evt.Type, err)
	}
	values := map[string]interface{}{
		"data":     string(data),
		"type":     string(evt.Type),
		"event_id": evt.ID,
		"ts":       evt.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	switch p := evt.Payload.(type) {
	case events.BetCreatedEvent:
		values["bet_id"] = p.Bet.ID
		values["status"] = p.Bet.Status
	case events.BetSettledEvent:
		values["bet_id"] = p.Bet.ID
		values["status"] = p.NewStatus
	case events.PassCompletedEvent:
		values["pass"] = p.Pass
	}
	return values, nil
}
