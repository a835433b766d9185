package routegraph

import (
	"context"
	"encoding/json"
	"time"

	"github.com/airhop/airhop/pkg/redis_client"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/rs/zerolog/log"
)

const datasetCacheKey = "airhop-route-dataset"

// DatasetCache keeps the assembled route dataset in redis between runs so
// repeated scans within the same publication day skip the datastore. The
// entry expires at the next morning refresh.
type DatasetCache struct {
	Cache *cache.Cache[string]
}

func (datasetCache *DatasetCache) Setup() {
	redisStore := redisstore.NewRedis(redis_client.Client)

	datasetCache.Cache = cache.New[string](redisStore)
}

func (datasetCache *DatasetCache) Get(ctx context.Context) *Dataset {
	cacheValue, err := datasetCache.Cache.Get(ctx, datasetCacheKey)
	if err != nil {
		return nil
	}

	var dataset *Dataset
	if err := json.Unmarshal([]byte(cacheValue), &dataset); err != nil {
		log.Error().Err(err).Msg("Failed to decode cached route dataset")
		return nil
	}

	return dataset
}

func (datasetCache *DatasetCache) Store(ctx context.Context, dataset *Dataset) {
	datasetJSON, err := json.Marshal(dataset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode route dataset for cache")
		return
	}

	err = datasetCache.Cache.Set(ctx, datasetCacheKey, string(datasetJSON), store.WithExpiration(TTLUntilRefresh(time.Now())))
	if err != nil {
		log.Error().Err(err).Msg("Failed to cache route dataset")
	}
}
