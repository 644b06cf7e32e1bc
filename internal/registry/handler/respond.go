package handler

import (
	"encoding/json"
	"net/http"

	dErrors "watsonmark/pkg/domain-errors"
)

type errorBody struct {
	Code    dErrors.Code `json:"code"`
	Message string       `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a coded error onto the wire. Only the caller-safe message
// is exposed; causes stay in the logs.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	writeJSON(w, dErrors.ToHTTPStatus(code), errorResponse{
		Error: errorBody{Code: code, Message: dErrors.MessageOf(err)},
	})
}
