package server

import (
	"encoding/json"
	"net/http"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound     = "https://moodwatch.dev/problems/not-found"
	ProblemTypeBadRequest   = "https://moodwatch.dev/problems/bad-request"
	ProblemTypeInternal     = "https://moodwatch.dev/problems/internal-error"
	ProblemTypeUnauthorized = "https://moodwatch.dev/problems/unauthorized"
	ProblemTypeRateLimited  = "https://moodwatch.dev/problems/rate-limited"
	ProblemTypeBadGateway   = "https://moodwatch.dev/problems/delivery-failed"
	ProblemTypeUnavailable  = "https://moodwatch.dev/problems/unavailable"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type" example:"https://moodwatch.dev/problems/bad-request"`
	Title    string `json:"title" example:"Bad Request"`
	Status   int    `json:"status" example:"400"`
	Detail   string `json:"detail,omitempty" example:"no active emergency contact"`
	Instance string `json:"instance,omitempty" example:"/api/v1/emergency/test"`
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// ProblemTypeFor maps a status code to its problem type URI.
func ProblemTypeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ProblemTypeBadRequest
	case http.StatusUnauthorized:
		return ProblemTypeUnauthorized
	case http.StatusNotFound:
		return ProblemTypeNotFound
	case http.StatusTooManyRequests:
		return ProblemTypeRateLimited
	case http.StatusBadGateway:
		return ProblemTypeBadGateway
	case http.StatusServiceUnavailable:
		return ProblemTypeUnavailable
	default:
		return ProblemTypeInternal
	}
}

// Error writes a problem response with the type derived from status.
func Error(w http.ResponseWriter, status int, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeFor(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	Error(w, http.StatusInternalServerError, detail, instance)
}

// RateLimited writes a 429 problem response.
func RateLimited(w http.ResponseWriter, detail, instance string) {
	Error(w, http.StatusTooManyRequests, detail, instance)
}
