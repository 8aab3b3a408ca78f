package dataportal

import (
	"context"
	"errors"
	"fmt"
)

// Dispatcher is the create/fetch/update/delete boundary business objects are
// persisted through. Any transport may implement it.
type Dispatcher interface {
	Create(ctx context.Context, objectType string, criteria any) (any, error)
	Fetch(ctx context.Context, objectType string, criteria any) (any, error)
	Update(ctx context.Context, instance any) (any, error)
	Delete(ctx context.Context, objectType string, criteria any) (any, error)

	// IsRemote tells callers whether arguments cross a process boundary.
	IsRemote() bool
}

// Hooks a factory may implement. A missing hook answers NotSupportedError.
type (
	Creator interface {
		Create(ctx context.Context, criteria any) (any, error)
	}
	Fetcher interface {
		Fetch(ctx context.Context, criteria any) (any, error)
	}
	Updater interface {
		Update(ctx context.Context, instance any) (any, error)
	}
	Deleter interface {
		Delete(ctx context.Context, criteria any) (any, error)
	}
)

var (
	ErrNotSupported      = errors.New("operation not supported")
	ErrUnknownObjectType = errors.New("unknown object type")
)

type NotSupportedError struct {
	ObjectType string
	Operation  string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("%s is not supported by '%s'", e.Operation, e.ObjectType)
}

func (e *NotSupportedError) Is(target error) bool {
	return target == ErrNotSupported
}

// CallContext is the ambient metadata of one dispatcher call.
type CallContext struct {
	Principal string
	Culture   string
	Async     bool
	RequestID string
}

type callContextKey struct{}

func WithCallContext(ctx context.Context, cc CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, cc)
}

// CallContextFrom returns the call metadata stored in ctx, or the zero value.
func CallContextFrom(ctx context.Context) CallContext {
	cc, _ := ctx.Value(callContextKey{}).(CallContext)
	return cc
}
