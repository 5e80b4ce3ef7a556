package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FailureKind classifies why a session, or part of it, failed.
type FailureKind string

const (
	KindSessionSetup    FailureKind = "session_setup"    // KindSessionSetup means the session could not be opened or its config is invalid.
	KindNavigation      FailureKind = "navigation"       // KindNavigation means the target page could not be loaded.
	KindExtraction      FailureKind = "extraction"       // KindExtraction means the page could not be read or parsed.
	KindTranslation     FailureKind = "translation"      // KindTranslation is per item and recovered with a fallback marker.
	KindResourceRelease FailureKind = "resource_release" // KindResourceRelease means closing the session failed; logged only.
	KindCanceled        FailureKind = "canceled"         // KindCanceled means the run context was canceled before the session finished.
	KindUnexpected      FailureKind = "unexpected"       // KindUnexpected covers recovered panics and sink rejections.
)

// Fatal reports whether a failure of this kind fails the whole session.
func (k FailureKind) Fatal() bool {
	switch k {
	case KindTranslation, KindResourceRelease:
		return false
	default:
		return true
	}
}

// SessionError is a failure attributed to one session.
type SessionError struct {
	Kind    FailureKind
	Session string
	Err     error
}

// NewSessionError creates a SessionError wrapping err.
func NewSessionError(kind FailureKind, session string, err error) *SessionError {
	return &SessionError{Kind: kind, Session: session, Err: err}
}

func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session %q: %s: %v", e.Session, e.Kind, e.Err)
	}
	return fmt.Sprintf("session %q: %s", e.Session, e.Kind)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the error as kind + message for run artifacts.
func (e *SessionError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Kind    FailureKind `json:"kind"`
		Message string      `json:"message"`
	}{Kind: e.Kind, Message: msg})
}

// UnmarshalJSON restores an error written by MarshalJSON. The cause is
// restored as an opaque error carrying the original message.
func (e *SessionError) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind    FailureKind `json:"kind"`
		Message string      `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Kind = raw.Kind
	if raw.Message != "" {
		e.Err = errors.New(raw.Message)
	}
	return nil
}

// KindOf returns the failure kind carried by err, or KindUnexpected when err
// is not a SessionError. A nil error has no kind.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var sessionErr *SessionError
	if errors.As(err, &sessionErr) {
		return sessionErr.Kind
	}
	return KindUnexpected
}
