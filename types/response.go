package types

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ListSettlementsParams are the query parameters of the settlement list.
type ListSettlementsParams struct {
	DriverID  string `form:"driverId"`
	YearMonth string `form:"yearMonth"`
	Status    string `form:"status"`
	Limit     int    `form:"limit,default=20" binding:"gte=1,lte=100"`
	Offset    int    `form:"offset,default=0" binding:"gte=0"`
}

// HealthStatus is the state of the service or one of its dependencies.
// Redis is optional, so losing it only degrades the service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "UP"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusDown     HealthStatus = "DOWN"
)

// HealthComponent reports one dependency, keyed by name in HealthCheck.
type HealthComponent struct {
	Status  HealthStatus `json:"status"`
	Details string       `json:"details,omitempty"`
}

// HealthCheck is the body of GET /health. Status is the worst component
// status; Timestamp is RFC 3339 in UTC.
type HealthCheck struct {
	Status     HealthStatus               `json:"status"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
	Timestamp  string                     `json:"timestamp"`
	Components map[string]HealthComponent `json:"components"`
}
