package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/routingfib/corefib/internal/fib/ferrors"
)

// problem is an RFC 7807 "problem details" response body.
type problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

const contentTypeProblemJSON = "application/problem+json"

func writeProblem(w http.ResponseWriter, status int, title, detail, code string) {
	w.Header().Set("Content-Type", contentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps a ferrors.Error onto an HTTP status the way the taxonomy's
// comment block groups codes: structural/usage mistakes are 400s, capacity
// exhaustion and in-use conflicts are 409/507, hardware failures are 502, and
// anything unrecognized falls back to 500.
func writeError(w http.ResponseWriter, err error) {
	var ferr *ferrors.Error
	if !errors.As(err, &ferr) {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", err.Error(), "")
		return
	}

	status := http.StatusInternalServerError
	switch ferr.Code {
	case ferrors.CodeCycleDetected, ferrors.CodeUnknownHandle, ferrors.CodeWalkDepthExceeded,
		ferrors.CodeRecursionExceeded, ferrors.CodeInvalidArgument:
		status = http.StatusBadRequest
	case ferrors.CodeInUse:
		status = http.StatusConflict
	case ferrors.CodeCapacityExhausted, ferrors.CodeEcmpFull, ferrors.CodeHwResourceExhausted:
		status = http.StatusInsufficientStorage
	case ferrors.CodeHwProgramFailed, ferrors.CodeHwDrainTimeout, ferrors.CodePartiallyApplied:
		status = http.StatusBadGateway
	}
	writeProblem(w, status, ferr.Code.String(), ferr.Error(), ferr.Code.String())
}
