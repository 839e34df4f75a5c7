package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/accounts/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var statusByKind = []struct {
	kind   error
	status int
	code   string
}{
	{common.ErrorValidation, http.StatusBadRequest, "validation_error"},
	{common.ErrorConflict, http.StatusBadRequest, "conflict"},
	{common.ErrorInvalidCode, http.StatusBadRequest, "invalid_code"},
	{common.ErrorExpired, http.StatusBadRequest, "expired"},
	{common.ErrorNotFound, http.StatusNotFound, "not_found"},
	{common.ErrorInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{common.ErrorForbidden, http.StatusForbidden, "forbidden"},
}

// classify maps an operation failure to its HTTP status and error code.
// Anything unclassified is a 500.
func classify(err error) (int, string) {
	for _, m := range statusByKind {
		if errors.Is(err, m.kind) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := "Internal server error"
	if status != http.StatusInternalServerError {
		msg = common.Message(err, http.StatusText(status))
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}
