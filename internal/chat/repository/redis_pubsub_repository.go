package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisPairChannelPrefix = "chat:pair:"

// RedisPubSub live event relay over redis pub/sub, one channel per pair
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
	}
}

// PairChannel redis channel of a pair
func PairChannel(key domain.PairKey) string {
	return redisPairChannelPrefix + string(key)
}

// Publish serialize ev and publish it on the pair channel
func (r *RedisPubSub) Publish(ctx context.Context, ev domain.LiveEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal live event: %w", err)
	}
	return r.client.Publish(ctx, PairChannel(ev.PairKey), data).Err()
}

// Subscribe pattern subscribe every pair channel, handler runs on one goroutine until ctx is done
func (r *RedisPubSub) Subscribe(ctx context.Context, handler func(domain.LiveEvent)) error {
	sub := r.client.PSubscribe(ctx, redisPairChannelPrefix+"*")
	// wait for the subscription confirmation so no event published after Subscribe returns is missed
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("psubscribe %s*: %w", redisPairChannelPrefix, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var ev domain.LiveEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					logger.Log.Error("unmarshal live event", zap.String("channel", m.Channel), zap.Error(err))
					continue
				}
				if string(ev.PairKey) != strings.TrimPrefix(m.Channel, redisPairChannelPrefix) {
					logger.Log.Warn("live event on foreign channel", zap.String("channel", m.Channel))
					continue
				}
				handler(ev)
			case <-ctx.Done():
				logger.Log.Info("redis relay subscription closed")
				return
			}
		}
	}()
	return nil
}
