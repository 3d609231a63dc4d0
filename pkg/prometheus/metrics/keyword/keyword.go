package keyword

const (
	TotalHttpRequestsMetricName    = "http_requests_total"
	TotalHttpResponsesMetricName   = "http_responses_total"
	HttpResponseStatusesMetricName = "http_response_statuses"
	HttpResponseTimeMsMetricName   = "http_response_time_ms"

	CacheLookupsMetricName            = "stories_cache_lookups_total"
	RefreshesMetricName               = "stories_refreshes_total"
	RefreshDurationMetricName         = "stories_refresh_duration_seconds"
	ItemFailuresMetricName            = "stories_item_failures_total"
	SnapshotStoriesMetricName         = "stories_snapshot_stories"
	UpstreamRequestsMetricName        = "stories_upstream_requests_total"
	UpstreamRequestDurationMetricName = "stories_upstream_request_duration_seconds"
)

// Cache lookup results.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupStale = "stale"
)

// Refresh cycle outcomes.
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
	// RefreshSkipped means the flight found a fresh snapshot committed by a previous flight.
	RefreshSkipped = "skipped"
)
