package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is bumped when the envelope structure itself changes.
// Clients check this before parsing the payload.
const EnvelopeVersion = 1

// APIEnvelope wraps every successful response body.
type APIEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps structured error responses that carry a
// machine-readable code and optional details.
type APIErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps all huma responses in the versioned envelope.
// Registered on the huma config at server construction.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	isError := len(status) > 0 && (status[0] == '4' || status[0] == '5')

	if apiErr, ok := v.(*APIError); ok {
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	if isError {
		msg := ""
		if err, ok := v.(error); ok {
			msg = err.Error()
		}
		return APIEnvelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   msg,
		}, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}
