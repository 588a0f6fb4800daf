package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/r3e-network/cas-dispatch/internal/errs"
)

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// writeError renders err as the JSON transport-shape error body,
// picking its HTTP status from errs.HTTPStatus.
func writeError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	body := errorBody{Message: err.Error()}

	if se := errs.As(err); se != nil {
		body.Code = string(se.Code)
		body.Message = se.Message
		body.Details = se.Details
	} else {
		body.Code = "INTERNAL"
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
