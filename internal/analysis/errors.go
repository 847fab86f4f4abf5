package analysis

import (
	"encoding/json"
	"errors"
	"strings"
)

// Kind classifies analysis failures. Each kind carries its own user-facing text.
type Kind int

const (
	KindUnknown Kind = iota
	KindCredentialMissing
	KindCredentialInvalid
	KindTransport
	KindEmptyResponse
	KindMalformedResponse
	KindInvalidImage
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindCredentialMissing: "credential_missing",
	KindCredentialInvalid: "credential_invalid",
	KindTransport:         "transport",
	KindEmptyResponse:     "empty_response",
	KindMalformedResponse: "malformed_response",
	KindInvalidImage:      "invalid_image",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String. Unrecognized names map to KindUnknown.
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

const (
	msgCredentialMissing = "API key is missing. Add it to the environment (GOOGLE_API_KEY for Gemini, OPENAI_API_KEY for OpenAI) or the .env file, then restart the service."
	msgCredentialInvalid = "API key was rejected. Check the key in your provider console (Gemini keys usually start with \"AIza\"), update the configuration and restart."
	msgTransport         = "Could not reach the analysis service. Check your connection and start again."
	msgAnalysisFailed    = "The analysis could not be completed. Please start again."
	msgInvalidImage      = "The captured image could not be read. Please start again."
)

// Error is a typed analysis failure.
type Error struct {
	Kind Kind
	// Message is detail for logs. Users see UserMessage instead.
	Message string
	Err     error
}

var (
	ErrCredentialMissing = &Error{Kind: KindCredentialMissing}
	ErrCredentialInvalid = &Error{Kind: KindCredentialInvalid}
	ErrTransport         = &Error{Kind: KindTransport}
	ErrEmptyResponse     = &Error{Kind: KindEmptyResponse}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrInvalidImage      = &Error{Kind: KindInvalidImage}
)

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any Error of the same kind, so the sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// UserMessage is the text shown on the error screen.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindCredentialMissing:
		return msgCredentialMissing
	case KindCredentialInvalid:
		return msgCredentialInvalid
	case KindTransport, KindEmptyResponse:
		return msgTransport
	case KindInvalidImage:
		return msgInvalidImage
	default:
		return msgAnalysisFailed
	}
}

// KindOf extracts the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage returns a non-empty user-facing message for any error.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return msgAnalysisFailed
}

// cleanRemoteMessage pulls error.message out of remote errors that embed a JSON body.
func cleanRemoteMessage(msg string) string {
	idx := strings.Index(msg, "{")
	if idx < 0 {
		return msg
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(msg[idx:]), &body); err != nil {
		return msg
	}
	if body.Error.Message != "" {
		return body.Error.Message
	}
	return msg
}
