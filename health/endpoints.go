package health

import (
	"context"
	"net/http"
	"time"
)

// EndpointsConfig configures response mapping.
type EndpointsConfig struct {
	// ReadyStatusCode makes readiness answer 503 when not ready. By default
	// readiness always answers 200 and callers read the body.
	ReadyStatusCode bool
}

// Endpoints builds the liveness, readiness and health payloads. It holds no
// per-request state.
type Endpoints struct {
	agg    *Aggregator
	config EndpointsConfig
	now    func() time.Time
}

// NewEndpoints creates endpoints over agg.
func NewEndpoints(agg *Aggregator, config ...EndpointsConfig) *Endpoints {
	var cfg EndpointsConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	return &Endpoints{agg: agg, config: cfg, now: time.Now}
}

// HealthResponse is OverallHealth with the mapped status code merged in.
type HealthResponse struct {
	StatusCode int `json:"statusCode"`
	OverallHealth
}

// LiveResponse is the liveness payload.
type LiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadyResponse is the readiness payload.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]Result `json:"services"`
}

// ComponentResponse is the single-dependency payload.
type ComponentResponse struct {
	Component    string         `json:"component"`
	Status       Status         `json:"status"`
	ResponseTime int64          `json:"responseTime"`
	Details      map[string]any `json:"details"`
}

// Readiness strings.
const (
	StatusAlive    = "alive"
	StatusReady    = "ready"
	StatusNotReady = "not ready"
)

// StatusCode maps an overall status to an HTTP status code.
func StatusCode(s Status) int {
	if s == StatusHealthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// Health runs the aggregator and maps its status to 200 or 503.
func (e *Endpoints) Health(ctx context.Context) HealthResponse {
	overall := e.agg.GetOverallHealth(ctx)
	return HealthResponse{
		StatusCode:    StatusCode(overall.Status),
		OverallHealth: overall,
	}
}

// Live reports that the process is scheduling code. It never consults the
// aggregator.
func (e *Endpoints) Live() LiveResponse {
	return LiveResponse{
		Status:    StatusAlive,
		Timestamp: FormatTimestamp(e.now()),
	}
}

// Ready runs the aggregator and returns the readiness payload with the HTTP
// code to send.
func (e *Endpoints) Ready(ctx context.Context) (int, ReadyResponse) {
	overall := e.agg.GetOverallHealth(ctx)

	resp := ReadyResponse{
		Status:    StatusReady,
		Timestamp: overall.Timestamp,
		Services:  overall.Services,
	}
	code := http.StatusOK
	if !overall.Healthy() {
		resp.Status = StatusNotReady
		if e.config.ReadyStatusCode {
			code = http.StatusServiceUnavailable
		}
	}
	return code, resp
}

// Component runs one named probe.
func (e *Endpoints) Component(ctx context.Context, name string) (ComponentResponse, error) {
	result, err := e.agg.Check(ctx, name)
	if err != nil {
		return ComponentResponse{}, err
	}
	details := result.Details
	if details == nil {
		details = map[string]any{}
	}
	return ComponentResponse{
		Component:    name,
		Status:       result.Status,
		ResponseTime: result.ResponseTimeMs(),
		Details:      details,
	}, nil
}
