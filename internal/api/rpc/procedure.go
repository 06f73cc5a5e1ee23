// Package rpc is the procedure boundary: named, typed operations with a
// declared input schema, whose failures always come back as a
// *util.DomainError.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"

	apperrors "github.com/spec-kit/user-registry/pkg/util"
)

// Input is implemented by every procedure input. Validate returns one message
// per offending field, or nil.
type Input interface {
	Validate() map[string]string
}

// Procedure is a callable operation as seen by the router.
type Procedure interface {
	Name() string
	Call(ctx context.Context, raw []byte) (any, error)
}

// HandlerFunc is the typed body of a procedure. It only runs on input that
// passed the schema.
type HandlerFunc[In Input, Out any] func(ctx context.Context, in In) (Out, error)

type procedure[In Input, Out any] struct {
	name    string
	handler HandlerFunc[In, Out]
}

// New declares a procedure.
func New[In Input, Out any](name string, handler func(ctx context.Context, in In) (Out, error)) Procedure {
	return &procedure[In, Out]{name: name, handler: handler}
}

func (p *procedure[In, Out]) Name() string { return p.name }

// Call decodes raw into In, checks the schema and runs the handler. An empty
// body decodes to the zero input.
func (p *procedure[In, Out]) Call(ctx context.Context, raw []byte) (any, error) {
	var in In
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, apperrors.NewBadRequest("invalid payload", nil)
		}
	}
	if fields := in.Validate(); len(fields) > 0 {
		return nil, apperrors.NewBadRequest("invalid input", fields)
	}
	return p.handler(ctx, in)
}
