package service

import (
	"net/http"

	"github.com/catalog-api/backend/internal/model"
)

// FailureReason says why a request was denied. ReasonNone means it was not.
type FailureReason int

const (
	ReasonNone FailureReason = iota
	ReasonMissingCredential
	ReasonMalformedCredential
	ReasonInvalidSignature
	ReasonExpiredCredential
	ReasonUnknownIdentity
	ReasonInactiveIdentity
	ReasonStalePasswordToken
	ReasonInsufficientRole
	ReasonInvalidAPIKey
	ReasonExpiredAPIKey
)

var reasonNames = map[FailureReason]string{
	ReasonNone:                "none",
	ReasonMissingCredential:   "missing_credential",
	ReasonMalformedCredential: "malformed_credential",
	ReasonInvalidSignature:    "invalid_signature",
	ReasonExpiredCredential:   "expired_credential",
	ReasonUnknownIdentity:     "unknown_identity",
	ReasonInactiveIdentity:    "inactive_identity",
	ReasonStalePasswordToken:  "stale_password_token",
	ReasonInsufficientRole:    "insufficient_role",
	ReasonInvalidAPIKey:       "invalid_api_key",
	ReasonExpiredAPIKey:       "expired_api_key",
}

func (r FailureReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// Status is the HTTP status a denial with this reason is rendered with.
func (r FailureReason) Status() int {
	switch r {
	case ReasonNone:
		return http.StatusOK
	case ReasonInsufficientRole:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

// Message is the client-facing text. Token failures share one message so the
// body does not reveal which check failed.
func (r FailureReason) Message(scheme Scheme) string {
	switch r {
	case ReasonMissingCredential:
		if scheme == SchemeAPIKey {
			return "API key is required"
		}
		return "You are not logged in. Please log in to access."
	case ReasonMalformedCredential, ReasonInvalidSignature, ReasonExpiredCredential:
		return "Invalid token. Please log in again."
	case ReasonUnknownIdentity, ReasonInactiveIdentity:
		if scheme == SchemeAPIKey {
			return "Invalid API key"
		}
		return "The user belonging to this token no longer exists."
	case ReasonStalePasswordToken:
		return "User recently changed password. Please log in again."
	case ReasonInvalidAPIKey, ReasonExpiredAPIKey:
		return "Invalid API key"
	case ReasonInsufficientRole:
		return "You do not have permission to perform this action"
	default:
		return ""
	}
}

// Decision is the outcome of authenticating one request: either Identity is set
// or Reason is a failure, never both.
type Decision struct {
	Scheme   Scheme
	Identity *model.User
	Reason   FailureReason
}

func allow(scheme Scheme, user *model.User) Decision {
	return Decision{Scheme: scheme, Identity: user}
}

func deny(scheme Scheme, reason FailureReason) Decision {
	return Decision{Scheme: scheme, Reason: reason}
}

func (d Decision) Authenticated() bool {
	return d.Reason == ReasonNone && d.Identity != nil
}
