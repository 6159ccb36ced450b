package model

// GeoInfo describes geographical / provider information associated with
// the exit IP a probe observed. Country/City/ISP are human-readable
// strings for reporting.
type GeoInfo struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	ISP     string `json:"isp,omitempty"`
}

// IPResolver turns an IP address into GeoInfo. Implementations live in
// internal/geo; the engine only consumes the interface so callers can
// plug a local database, a remote service, or nothing at all.
type IPResolver interface {
	Lookup(ip string) (GeoInfo, error)
}
