package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/zarko379/iMangarr-ng/internal/errors"
)

// APIError is the huma.StatusError every JSON operation fails with.
type APIError struct { //nolint:revive // reads better than api.Error at call sites
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Per-field messages"`
}

func (e *APIError) Error() string  { return e.Message }
func (e *APIError) GetStatus() int { return e.status }

// ContentType implements huma.ContentTypeFilter.
func (e *APIError) ContentType(string) string { return "application/json" }

var internalError = APIError{
	status:  http.StatusInternalServerError,
	Code:    string(domainerrors.CodeInternal),
	Message: "internal server error",
}

// codeForStatus names the code huma's own errors (bad params, 404s, 429s) get.
var codeForStatus = map[int]domainerrors.Code{
	http.StatusBadRequest:          domainerrors.CodeValidation,
	http.StatusUnprocessableEntity: domainerrors.CodeValidation,
	http.StatusNotFound:            domainerrors.CodeNotFound,
	http.StatusConflict:            domainerrors.CodeAlreadyExists,
	http.StatusTooManyRequests:     domainerrors.CodeRateLimited,
	http.StatusBadGateway:          domainerrors.CodeCatalogUnavailable,
}

func statusToCode(status int) string {
	if code, ok := codeForStatus[status]; ok {
		return string(code)
	}
	return string(domainerrors.CodeInternal)
}

// RegisterErrorHandler makes huma build APIErrors. A domain error anywhere in
// errs decides the response; otherwise status and message are kept and
// huma's validation details are flattened to location -> message.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			if apiErr, ok := fromDomain(err); ok {
				return apiErr
			}
		}

		apiErr := &APIError{status: status, Code: statusToCode(status), Message: message}
		details := map[string]string{}
		for _, err := range errs {
			var d *huma.ErrorDetail
			if errors.As(err, &d) && d.Location != "" {
				details[d.Location] = d.Message
			}
		}
		if len(details) > 0 {
			apiErr.Details = details
		}
		return apiErr
	}
}

// toAPIError converts a service error for a huma handler. Errors without a
// code become a bare 500.
func toAPIError(err error) error {
	if apiErr, ok := fromDomain(err); ok {
		return apiErr
	}
	e := internalError
	return &e
}

// fromDomain reports false when err carries no domain code. Internal errors
// are returned with a fixed message so causes never reach clients.
func fromDomain(err error) (*APIError, bool) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		return nil, false
	}
	if domainErr.Code == domainerrors.CodeInternal {
		e := internalError
		return &e, true
	}
	return &APIError{
		status:  domainErr.HTTPStatus(),
		Code:    string(domainErr.Code),
		Message: domainErr.Message,
		Details: domainErr.Details,
	}, true
}
