package model

type HealthStatus string

const (
	StatusUp      HealthStatus = "UP"
	StatusDown    HealthStatus = "DOWN"
	StatusUnknown HealthStatus = "UNKNOWN"
)

// ComponentHealthStatus is the probe result of one dependency
type ComponentHealthStatus struct {
	Status  HealthStatus      `json:"status"`
	Details map[string]string `json:"details"`
}

// HealthResponse is served by GET /health
type HealthResponse struct {
	Status   HealthStatus          `json:"status"`
	Database ComponentHealthStatus `json:"database"`
	Cache    ComponentHealthStatus `json:"cache"`
	Queue    ComponentHealthStatus `json:"queue"`
}

// NewHealthResponse reports UP only when every component is UP.
func NewHealthResponse(database, cache, queue ComponentHealthStatus) HealthResponse {
	status := StatusUp
	for _, component := range []ComponentHealthStatus{database, cache, queue} {
		if component.Status != StatusUp {
			status = StatusDown
			break
		}
	}
	return HealthResponse{Status: status, Database: database, Cache: cache, Queue: queue}
}
