package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
	"github.com/yusufkecer/macro-tracker-backend/internal/metabolic"
	"github.com/yusufkecer/macro-tracker-backend/internal/middleware"
)

// writeJSON encodes v before touching the response, so a value that cannot
// be encoded turns into a 500 instead of an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("[http] failed to encode response: %v", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDecodeError reports a field-level message when a typed enum rejected
// its value, and a generic one otherwise.
func writeDecodeError(w http.ResponseWriter, err error) {
	var inputErr *metabolic.InputError
	if errors.As(err, &inputErr) {
		writeError(w, http.StatusBadRequest, inputErr.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
}

func accountID(r *http.Request) int64 {
	id, _ := middleware.AccountID(r.Context())
	return id
}

// today is the current UTC date; a variable so tests can pin it.
var today = func() string {
	return time.Now().UTC().Format(domain.DateLayout)
}
