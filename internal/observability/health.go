package observability

import "time"

// HealthStatus is the liveness report of the service itself, not of the recorded health check
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}
