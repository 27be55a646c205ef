package fakeapi

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type HealthInput struct{}

type HealthOutput struct {
	Body HealthResponse
}

type HealthResponse struct {
	Status  string `json:"status" example:"healthy" doc:"Health status of the service"`
	Service string `json:"service"`
	Version string `json:"version"`
}

func (s *Server) setupHealthRoutes(api huma.API, public huma.Middlewares) {
	huma.Register(api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check endpoint",
		Tags:        []string{"health"},
		Middlewares: public,
	}, s.healthCheck)
}

func (s *Server) healthCheck(_ context.Context, _ *HealthInput) (*HealthOutput, error) {
	s.log.Debug("health check request received")

	return &HealthOutput{Body: HealthResponse{Status: "healthy", Service: "equilibria-api", Version: "1.0.0"}}, nil
}
