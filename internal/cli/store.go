package cli

import (
	"context"
	"fmt"

	"github.com/Makepad-fr/freetodo/internal/config"
	"github.com/Makepad-fr/freetodo/internal/store"
	"github.com/Makepad-fr/freetodo/internal/store/jsonstore"
	"github.com/Makepad-fr/freetodo/internal/store/redisstore"
	"github.com/Makepad-fr/freetodo/internal/store/tablestore"
)

// openStore picks the backend named by sc.Backend.
func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Backend {
	case config.BackendFile, "":
		return jsonstore.New(sc.Dir)
	case config.BackendRedis:
		return redisstore.Open(sc.RedisURL, sc.RedisPrefix, sc.RedisTTL.Duration)
	case config.BackendTable:
		return tablestore.Open(ctx, sc.TableConnectionString, sc.TableName, sc.TablePartition)
	}
	return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
}
