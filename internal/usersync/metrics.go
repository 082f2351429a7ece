package usersync

import "expvar"

var (
	metricSyncTotal       = expvar.NewInt("user_sync_total")
	metricSyncErrorsTotal = expvar.NewInt("user_sync_errors_total")

	metricCacheHitTotal   = expvar.NewInt("snapshot_cache_hit_total")
	metricCacheMissTotal  = expvar.NewInt("snapshot_cache_miss_total")
	metricCacheEvictTotal = expvar.NewInt("snapshot_cache_evict_total")

	metricSessionExpiredTotal = expvar.NewInt("session_expired_total")
	metricSessionEvictTotal   = expvar.NewInt("session_capacity_evict_total")

	metricProgressTotal       = expvar.NewInt("progress_apply_total")
	metricProgressErrorsTotal = expvar.NewInt("progress_apply_errors_total")
)
