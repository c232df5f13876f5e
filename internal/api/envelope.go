package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/zarko379/iMangarr-ng/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in response.Envelope so
// JSON clients see the same shape from huma and plain chi routes.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case response.Envelope, *response.Envelope:
		return v, nil
	case *APIError:
		return response.Envelope{
			Error:   body.Message,
			Code:    body.Code,
			Details: body.Details,
		}, nil
	case nil:
		return response.Envelope{Success: true}, nil
	default:
		return response.Envelope{Success: true, Data: v}, nil
	}
}
