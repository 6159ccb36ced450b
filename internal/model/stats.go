package model

// BatchStats aggregates summary analytics for an entire run.
// These live outside the engine: a single verification is stateless,
// counters belong to the caller.
type BatchStats struct {
	TotalProxies          int            `json:"total_proxies"`
	UniqueProxies         int            `json:"unique_proxies"`
	AliveProxies          int            `json:"alive_proxies"`
	PartiallyAlive        int            `json:"partially_alive_proxies"`
	DeadProxies           int            `json:"dead_proxies"`
	AvgConnectMs          float64        `json:"avg_connect_ms"`
	SuccessRatePct        float64        `json:"success_rate_pct"`
	Anonymity             map[string]int `json:"anonymity,omitempty"`
	TotalProcessingTimeMs int64          `json:"total_processing_time_ms"`
}
