package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Health states, ordered from best to worst.
const (
	healthy   = "healthy"
	degraded  = "degraded"
	unhealthy = "unhealthy"
)

var healthRank = map[string]int{healthy: 0, degraded: 1, unhealthy: 2}

// ComponentHealth is the state of one dependency.
type ComponentHealth struct {
	Status  string `json:"status" doc:"healthy, degraded or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Time the check took"`
	Message string `json:"message,omitempty" doc:"Short detail"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Worst component status"`
	Version    string                     `json:"version" doc:"Server version"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthOutput is the huma output for GET /health.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports the library store, the title index, the activity stream and, when enabled, the mDNS advertisement.",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	body := HealthResponse{
		Status:  healthy,
		Version: Version,
		Components: map[string]ComponentHealth{
			"library": s.libraryHealth(ctx),
			"search":  s.indexHealth(),
			"sse":     s.eventsHealth(),
		},
	}
	if s.services.MDNS != nil {
		body.Components["mdns"] = s.mdnsHealth()
	}
	for _, c := range body.Components {
		if healthRank[c.Status] > healthRank[body.Status] {
			body.Status = c.Status
		}
	}
	return &HealthOutput{Body: body}, nil
}

func (s *Server) libraryHealth(ctx context.Context) ComponentHealth {
	if s.services.Library == nil {
		return ComponentHealth{Status: degraded, Message: "library not configured"}
	}

	start := time.Now()
	entries, err := s.services.Library.List(ctx, "")
	took := time.Since(start).String()
	if err != nil {
		return ComponentHealth{Status: unhealthy, Latency: took, Message: "library read failed"}
	}
	return ComponentHealth{Status: healthy, Latency: took, Message: fmt.Sprintf("%d entries", len(entries))}
}

// indexHealth only degrades: without the index the dashboard filter falls
// back to substring matching.
func (s *Server) indexHealth() ComponentHealth {
	if s.services.Index == nil {
		return ComponentHealth{Status: degraded, Message: "title index disabled"}
	}
	n, err := s.services.Index.Count()
	if err != nil {
		return ComponentHealth{Status: degraded, Message: "title index unavailable"}
	}
	return ComponentHealth{Status: healthy, Message: fmt.Sprintf("%d titles indexed", n)}
}

func (s *Server) eventsHealth() ComponentHealth {
	if s.services.Events == nil {
		return ComponentHealth{Status: degraded, Message: "activity stream disabled"}
	}
	return ComponentHealth{Status: healthy, Message: fmt.Sprintf("%d clients connected", s.services.Events.ClientCount())}
}

// mdnsHealth degrades when advertising was requested but is not running,
// usually because there is no system bus.
func (s *Server) mdnsHealth() ComponentHealth {
	if !s.services.MDNS.Running() {
		return ComponentHealth{Status: degraded, Message: "not advertising"}
	}
	return ComponentHealth{Status: healthy, Message: "advertising"}
}
