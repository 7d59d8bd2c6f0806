package workers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	go_redis "github.com/redis/go-redis/v9"

	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/features/pool/service"
)

const (
	DefaultStreamKey = "pool:draw_requests"
	consumerGroup    = "prize_pool_consumers"
	consumerName     = "prize_pool_worker_1"
)

// Event types accepted on the request stream.
const (
	EventDrawRequested  = "draw_requested"
	EventClaimRequested = "claim_requested"
)

var ErrUnknownEvent = errors.New("unknown stream event")

// RedisStreamWorker turns stream entries published by trusted producers
// (the bot, cron jobs) into pool draws and payouts.
//
// draw_requested carries an optional comma-separated "candidates" field.
// claim_requested carries "authorizer" and an optional "winner".
type RedisStreamWorker struct {
	rdb    go_redis.Cmdable
	svc    service.PoolService
	stream string
	block  time.Duration
}

func NewRedisStreamWorker(rdb go_redis.Cmdable, svc service.PoolService, stream string) *RedisStreamWorker {
	if stream == "" {
		stream = DefaultStreamKey
	}
	return &RedisStreamWorker{
		rdb:    rdb,
		svc:    svc,
		stream: stream,
		block:  5 * time.Second,
	}
}

// Start consumes the stream until ctx is cancelled.
func (w *RedisStreamWorker) Start(ctx context.Context) {
	log := logger.With("stream_worker")

	err := w.rdb.XGroupCreateMkStream(ctx, w.stream, consumerGroup, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Error().Err(err).Str("stream", w.stream).Msg("Error creating consumer group")
	}

	log.Info().Str("stream", w.stream).Msg("Starting Redis stream worker")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopping Redis stream worker")
			return
		default:
		}

		entries, err := w.rdb.XReadGroup(ctx, &go_redis.XReadGroupArgs{
			Group:    consumerGroup,
			Consumer: consumerName,
			Streams:  []string{w.stream, ">"},
			Count:    10,
			Block:    w.block,
		}).Result()
		if err != nil {
			if !errors.Is(err, go_redis.Nil) && ctx.Err() == nil {
				log.Error().Err(err).Msg("Error reading from stream")
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
			continue
		}

		for _, stream := range entries {
			for _, msg := range stream.Messages {
				if err := w.Process(ctx, msg.Values); err != nil {
					log.Warn().Err(err).Str("message_id", msg.ID).Msg("Stream request rejected")
				}
				if err := w.rdb.XAck(ctx, w.stream, consumerGroup, msg.ID).Err(); err != nil {
					log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to acknowledge message")
				}
			}
		}
	}
}

// Process executes a single stream request.
func (w *RedisStreamWorker) Process(ctx context.Context, values map[string]interface{}) error {
	eventType, _ := values["type"].(string)

	switch eventType {
	case EventDrawRequested:
		candidates := splitList(field(values, "candidates"))
		draw, err := w.svc.SelectWinner(ctx, candidates)
		if err != nil {
			return fmt.Errorf("draw: %w", err)
		}
		logger.Info().
			Str("draw_id", draw.ID).
			Str("winner", draw.Winner).
			Uint64("reward_pool", draw.RewardPool).
			Msg("Stream draw completed")
		return nil

	case EventClaimRequested:
		claim, err := w.svc.Claim(ctx, field(values, "authorizer"), field(values, "winner"))
		if err != nil {
			return fmt.Errorf("claim: %w", err)
		}
		logger.Info().
			Str("claim_id", claim.ID).
			Str("winner", claim.Winner).
			Uint64("amount", claim.Amount).
			Msg("Stream claim completed")
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
	}
}

func field(values map[string]interface{}, key string) string {
	s, _ := values[key].(string)
	return strings.TrimSpace(s)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
