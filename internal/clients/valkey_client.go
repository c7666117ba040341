package clients

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

const seenKeyTTLSeconds = 86400

// ValkeyClient tracks externally-sourced items already ingested so repeat
// runs can skip refetching their comment trees. The cache is advisory: when
// Valkey is unconfigured or unreachable every operation degrades to "not
// seen" and ingestion falls back on the database's unique constraints.
type ValkeyClient struct {
	client valkey.Client
}

// InitValkey connects to Valkey when an address is configured. An empty
// address or a failed connection yields a degraded client, not an error.
func InitValkey(address, password string) *ValkeyClient {
	if address == "" {
		slog.Info("[ValkeyClient] No address configured, seen-cache disabled")
		return &ValkeyClient{}
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{address},
		Password:         password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	})
	if err != nil {
		slog.Warn("[ValkeyClient] Failed to create client, seen-cache disabled",
			slog.String("error", err.Error()))
		return &ValkeyClient{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if res := client.Do(ctx, client.B().Ping().Build()); res.Error() != nil {
		slog.Warn("[ValkeyClient] Failed to ping Valkey, seen-cache disabled",
			slog.String("error", res.Error().Error()))
		client.Close()
		return &ValkeyClient{}
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey")
	return &ValkeyClient{client: client}
}

func (vc *ValkeyClient) Close() {
	if vc.client != nil {
		vc.client.Close()
	}
}

// IsSeen reports whether the item key was marked during a previous run.
func (vc *ValkeyClient) IsSeen(ctx context.Context, platform, key string) bool {
	if vc.client == nil {
		return false
	}

	res := vc.client.Do(ctx, vc.client.B().Sismember().
		Key(seenSetKey(platform)).Member(key).Build())
	if res.Error() != nil {
		return false
	}

	seen, err := res.AsBool()
	if err != nil {
		return false
	}
	return seen
}

// MarkSeen records the item key with a 24h TTL on the containing set.
func (vc *ValkeyClient) MarkSeen(ctx context.Context, platform, key string) error {
	if vc.client == nil {
		return nil
	}

	completed := []valkey.Completed{
		vc.client.B().Sadd().Key(seenSetKey(platform)).Member(key).Build(),
		vc.client.B().Expire().Key(seenSetKey(platform)).Seconds(seenKeyTTLSeconds).Build(),
	}
	for _, res := range vc.client.DoMulti(ctx, completed...) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("[ValkeyClient] failed to mark item seen: %w", err)
		}
	}
	return nil
}

func seenSetKey(platform string) string {
	return platform + ":ingested_items"
}
