package rpc

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/user-registry/internal/observability"
	apperrors "github.com/spec-kit/user-registry/pkg/util"
)

const codeOK = "OK"

// Router dispatches calls by procedure name. It holds no per-call state and
// is safe for concurrent use.
type Router struct {
	procedures map[string]Procedure
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewRouter registers procs. Duplicate names panic at startup.
func NewRouter(logger *zap.Logger, metrics *observability.Metrics, procs ...Procedure) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		procedures: make(map[string]Procedure, len(procs)),
		logger:     logger,
		metrics:    metrics,
	}
	for _, p := range procs {
		if _, dup := r.procedures[p.Name()]; dup {
			panic(fmt.Sprintf("rpc: procedure %q registered twice", p.Name()))
		}
		r.procedures[p.Name()] = p
	}
	return r
}

// Names lists registered procedures, sorted.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs the named procedure. Exactly one of the results is non-nil.
func (r *Router) Call(ctx context.Context, name string, raw []byte) (out any, derr *apperrors.DomainError) {
	p, ok := r.procedures[name]
	if !ok {
		r.metrics.RecordProcedure("unknown", apperrors.CodeNotFound, 0)
		return nil, apperrors.NewNotFound(fmt.Sprintf("procedure %q", name))
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("procedure panicked",
				zap.String("procedure", name),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))
			out, derr = nil, apperrors.NewInternalError(fmt.Errorf("panic: %v", rec))
		}
		code := codeOK
		if derr != nil {
			code = derr.Code
		}
		r.metrics.RecordProcedure(name, code, time.Since(start))
	}()

	res, err := p.Call(ctx, raw)
	if err != nil {
		derr = MapError(err)
		r.logFailure(name, derr)
		return nil, derr
	}
	return res, nil
}

func (r *Router) logFailure(name string, derr *apperrors.DomainError) {
	switch derr.Code {
	case apperrors.CodeInternal:
		r.logger.Error("procedure failed", zap.String("procedure", name), zap.Error(derr.Err))
	case apperrors.CodeUnavailable:
		r.logger.Warn("procedure unavailable", zap.String("procedure", name), zap.Error(derr.Err))
	default:
		r.logger.Debug("procedure rejected", zap.String("procedure", name), zap.String("code", derr.Code))
	}
}
