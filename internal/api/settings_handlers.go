package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/service"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings",
		Summary:     "Get settings",
		Description: "Returns the settings record. 404 NOT_CONFIGURED before setup.",
		Tags:        []string{"Settings"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings",
		Summary:     "Save settings",
		Description: "Creates or overwrites the settings record",
		Tags:        []string{"Settings"},
	}, s.handleUpdateSettings)
}

// SettingsResponse contains settings data in API responses.
type SettingsResponse struct {
	RootPath string `json:"root_path" doc:"Where downloaded manga will live"`
	Indexer  string `json:"indexer" doc:"Indexer name (informational)"`
}

// SettingsOutput wraps the settings response for Huma.
type SettingsOutput struct {
	Body SettingsResponse
}

// UpdateSettingsRequest is the request body for saving settings.
type UpdateSettingsRequest struct {
	RootPath string `json:"root_path" minLength:"1" maxLength:"4096" doc:"Where downloaded manga will live"`
}

// UpdateSettingsInput wraps the update request for Huma.
type UpdateSettingsInput struct {
	Body UpdateSettingsRequest
}

func (s *Server) handleGetSettings(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Get(ctx)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SettingsOutput{Body: toSettingsResponse(settings)}, nil
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	settings, err := s.services.Settings.Setup(ctx, service.SetupRequest{RootPath: input.Body.RootPath})
	if err != nil {
		return nil, toAPIError(err)
	}
	return &SettingsOutput{Body: toSettingsResponse(settings)}, nil
}

func toSettingsResponse(settings *domain.Settings) SettingsResponse {
	return SettingsResponse{RootPath: settings.RootPath, Indexer: settings.Indexer}
}
