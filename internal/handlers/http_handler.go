package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Error tags returned in the "error" field of failed responses.
const (
	ErrTagValidation         = "ValidationError"
	ErrTagInvalidCredentials = "InvalidCredentialsError"
	ErrTagServer             = "ServerError"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, tag string) {
	respondJSON(w, status, ErrorResponse{Success: false, Error: tag})
}

// acceptsJSON reports whether the Accept header admits application/json.
// A missing header admits anything.
func acceptsJSON(header string) bool {
	if strings.TrimSpace(header) == "" {
		return true
	}

	for _, part := range strings.Split(header, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if q, ok := params["q"]; ok {
			if weight, err := strconv.ParseFloat(q, 64); err == nil && weight == 0 {
				continue
			}
		}
		switch mediaType {
		case "application/json", "application/*", "*/*":
			return true
		}
	}

	return false
}

// addParams returns base with params merged into its query string. Existing
// parameters are kept unless overwritten.
func addParams(base *url.URL, params map[string]string) string {
	u := *base
	query := u.Query()
	for key, value := range params {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()
	return u.String()
}
