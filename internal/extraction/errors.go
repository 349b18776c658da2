package extraction

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrorKind classifies an extraction failure. Classification happens once
// here, at the source; callers branch on Kind instead of inspecting
// message text.
type ErrorKind int

const (
	// KindUnknown covers any failure that has no more specific kind.
	KindUnknown ErrorKind = iota
	// KindMissingCredential means no usable API key could be resolved.
	// The external call was never attempted.
	KindMissingCredential
	// KindPermissionDenied means the provider rejected the credential.
	KindPermissionDenied
	// KindMalformedResponse means the model reply could not be parsed.
	KindMalformedResponse
)

// Error is a classified extraction failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Systemic reports whether the failure indicates a misconfiguration that
// will affect every subsequent file, not just this one.
func (e *Error) Systemic() bool {
	return e.Kind == KindMissingCredential || e.Kind == KindPermissionDenied
}

func missingCredentialError() *Error {
	return &Error{
		Kind:    KindMissingCredential,
		Message: "no API key configured. Enter a Gemini API key in settings or set GEMINI_API_KEY",
	}
}

func malformedResponseError(err error) *Error {
	return &Error{
		Kind:    KindMalformedResponse,
		Message: "could not parse the extraction response. Please try the file again",
		Err:     err,
	}
}

// classifyCallError translates a transport failure from the model call
// into a typed Error.
func classifyCallError(err error) *Error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusForbidden, http.StatusUnauthorized:
			return &Error{
				Kind:    KindPermissionDenied,
				Message: "the extraction service rejected the API key. Remove key restrictions or enable the Generative Language API for this key",
				Err:     err,
			}
		}
	}
	return &Error{
		Kind:    KindUnknown,
		Message: "could not process file. Ensure it is a clear image or PDF",
		Err:     err,
	}
}
