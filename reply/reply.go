// Package reply defines the failure envelope carried inside request-reply
// payloads. Services put domain failures here instead of returning a
// transport error, so callers can recover the failure kind.
package reply

import "errors"

// Error is a domain failure returned in a service reply.
type Error struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// Error implements error.
func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Codec maps a fixed set of sentinel errors to reply codes and back.
type Codec struct {
	byCode map[string]error
}

// NewCodec builds a Codec from code/sentinel pairs.
func NewCodec(pairs map[string]error) *Codec {
	return &Codec{byCode: pairs}
}

// Encode returns the reply error for err, or nil when err matches none of
// the registered sentinels.
func (c *Codec) Encode(err error) *Error {
	for code, sentinel := range c.byCode {
		if errors.Is(err, sentinel) {
			return &Error{Code: code, Message: sentinel.Error()}
		}
	}
	return nil
}

// Decode returns the sentinel registered for e.Code, or e itself when the
// code is unknown. A nil e decodes to nil.
func (c *Codec) Decode(e *Error) error {
	if e == nil {
		return nil
	}
	if sentinel, ok := c.byCode[e.Code]; ok {
		return sentinel
	}
	return e
}
