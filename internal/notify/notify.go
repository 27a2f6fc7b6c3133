// Package notify implements the publish side of the Change Notifier
// (spec.md §4.7): diff computation lives in internal/materialize (it
// needs the same pre/post latest snapshots the materializer already
// takes); this package only serializes and publishes the result.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aosc-dev/p-vector/internal/utils/logger"
)

// RepoDiff is one changed repo's symmetric diff between the
// pre-scan and post-scan latest sets, per spec.md §4.7.
type RepoDiff struct {
	Repo    string       `json:"repo"`
	Added   []string     `json:"added"`   // "name=version"
	Removed []string     `json:"removed"` // "name=version"
	Updated []UpdateDiff `json:"updated"`
}

// UpdateDiff is one package whose latest version changed.
type UpdateDiff struct {
	Name string `json:"name"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// Notifier publishes a change payload to a pub/sub channel. Failure
// to publish is non-fatal per spec.md §4.7: callers log and continue.
type Notifier interface {
	Notify(ctx context.Context, channel string, payload []byte) error
}

// NopNotifier is selected when change_notifier is unset/"null".
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, []byte) error { return nil }

// RedisNotifier publishes over a Redis pub/sub channel.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier parses addr (a redis:// URI) at startup, so a
// malformed URI is reported immediately; no connection is opened until
// the first publish.
func NewRedisNotifier(addr string) (*RedisNotifier, error) {
	opt, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("notify: parsing redis address %s: %w", addr, err)
	}
	return &RedisNotifier{client: redis.NewClient(opt)}, nil
}

func (n *RedisNotifier) Notify(ctx context.Context, channel string, payload []byte) error {
	return n.client.Publish(ctx, channel, payload).Err()
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// PublishDiffs serializes each changed repo's diff to JSON and
// publishes it individually, per spec.md §4.7's "one message per
// changed repo". A publish failure is logged, not returned, matching
// the non-fatal policy.
func PublishDiffs(ctx context.Context, n Notifier, channel string, diffs []RepoDiff) {
	for _, d := range diffs {
		payload, err := json.Marshal(d)
		if err != nil {
			logger.Logger().Errorw("failed to marshal change notification", "repo", d.Repo, "error", err)
			continue
		}
		if err := n.Notify(ctx, channel, payload); err != nil {
			logger.Logger().Warnw("failed to publish change notification", "repo", d.Repo, "error", err)
		}
	}
}
