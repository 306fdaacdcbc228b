package task

import (
	"errors"

	domain "github.com/kaiodadalt/task-management-system/domain/task"
	"github.com/kaiodadalt/task-management-system/reply"
)

// CodeValidationFailed marks a reply carrying per-field messages.
const CodeValidationFailed = "validation_failed"

var replyCodec = reply.NewCodec(map[string]error{
	"not_found":       domain.ErrNotFound,
	"forbidden":       domain.ErrForbidden,
	"unauthenticated": domain.ErrUnauthenticated,
})

// encodeFailure turns a task failure into a reply error. Unknown errors
// are returned as transport errors.
func encodeFailure(err error) (*reply.Error, error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return &reply.Error{Code: CodeValidationFailed, Message: "The given data was invalid.", Fields: verr.Fields}, nil
	}
	if encoded := replyCodec.Encode(err); encoded != nil {
		return encoded, nil
	}
	return nil, err
}

// decodeFailure is the inverse of encodeFailure.
func decodeFailure(e *reply.Error) error {
	if e == nil {
		return nil
	}
	if e.Code == CodeValidationFailed {
		return &domain.ValidationError{Fields: e.Fields}
	}
	return replyCodec.Decode(e)
}
