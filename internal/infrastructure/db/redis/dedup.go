package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const importDedupTTL = 24 * time.Hour

// ImportDedup provides idempotency checks for bulk imports, backed by Redis.
// Key format: import:<tenant_id>:<idempotency_key>
type ImportDedup struct {
	client *redis.Client
}

// NewImportDedup creates an ImportDedup wrapping the given Redis client.
func NewImportDedup(client *redis.Client) *ImportDedup {
	return &ImportDedup{client: client}
}

// IsDuplicate reports whether an import with this key has already been
// processed for the tenant.
func (d *ImportDedup) IsDuplicate(ctx context.Context, tenantID, key string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(tenantID, key)).Result()
	if err != nil {
		return false, fmt.Errorf("import dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this import has been processed (expires after
// importDedupTTL).
func (d *ImportDedup) Mark(ctx context.Context, tenantID, key string) error {
	return d.client.Set(ctx, d.key(tenantID, key), "1", importDedupTTL).Err()
}

func (d *ImportDedup) key(tenantID, key string) string {
	return fmt.Sprintf("import:%s:%s", tenantID, key)
}
