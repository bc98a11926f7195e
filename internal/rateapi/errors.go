package rateapi

import (
	"errors"
	"fmt"
)

// Kind separates collaborator failures the way the workflow needs to react
// to them: network failures and API rejections are retryable by resubmitting;
// auth failures tear the session down.
type Kind int

const (
	// KindNetwork means the request never produced a usable response.
	KindNetwork Kind = iota + 1
	// KindAPI means the collaborator answered with success=false, an error
	// status, or a malformed payload.
	KindAPI
	// KindAuth means a 401 or an expired-token rejection.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAPI:
		return "api"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Error is the typed collaborator failure surfaced to the workflow.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the single message shown to the user.
func (e *Error) UserMessage() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Kind == KindAuth:
		return "Your session has expired. Please log in again."
	case e.Kind == KindNetwork:
		return "Could not reach the shipping service. Please try again."
	default:
		return "The shipping service returned an error. Please try again."
	}
}

func kindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsAuth reports whether the failure must tear down the user session.
func IsAuth(err error) bool { return kindOf(err) == KindAuth }

// IsNetwork reports whether the request never reached the collaborator.
func IsNetwork(err error) bool { return kindOf(err) == KindNetwork }

// IsAPI reports whether the collaborator rejected the request.
func IsAPI(err error) bool { return kindOf(err) == KindAPI }
