package dataportal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Options struct {
	// Registerer receives the dispatcher metrics. Nil disables them.
	Registerer prometheus.Registerer

	Logf func(format string, args ...any)
}

// Local runs factory hooks in process. Factories are registered per object
// type; Update resolves the type from the instance Kind().
type Local struct {
	mutex     sync.RWMutex
	factories map[string]any
	metrics   *metrics
	logf      func(format string, args ...any)
}

var _ Dispatcher = (*Local)(nil)

func NewLocal(options *Options) *Local {
	if options == nil {
		options = &Options{}
	}
	return &Local{
		factories: map[string]any{},
		metrics:   newMetrics(options.Registerer),
		logf:      options.Logf,
	}
}

// Register binds factory to objectType. factory implements any subset of
// Creator, Fetcher, Updater and Deleter.
func (l *Local) Register(objectType string, factory any) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.factories[objectType] = factory
}

func (l *Local) IsRemote() bool {
	return false
}

type kinded interface {
	Kind() string
}

// ObjectTypeOf names the factory an instance is updated through.
func ObjectTypeOf(instance any) string {
	if k, ok := instance.(kinded); ok {
		return k.Kind()
	}
	return fmt.Sprintf("%T", instance)
}

func (l *Local) Create(ctx context.Context, objectType string, criteria any) (any, error) {
	return l.call(ctx, "create", objectType, func(factory any) (any, error) {
		hook, ok := factory.(Creator)
		if !ok {
			return nil, &NotSupportedError{ObjectType: objectType, Operation: "create"}
		}
		return hook.Create(ctx, criteria)
	})
}

func (l *Local) Fetch(ctx context.Context, objectType string, criteria any) (any, error) {
	return l.call(ctx, "fetch", objectType, func(factory any) (any, error) {
		hook, ok := factory.(Fetcher)
		if !ok {
			return nil, &NotSupportedError{ObjectType: objectType, Operation: "fetch"}
		}
		return hook.Fetch(ctx, criteria)
	})
}

func (l *Local) Update(ctx context.Context, instance any) (any, error) {
	objectType := ObjectTypeOf(instance)
	return l.call(ctx, "update", objectType, func(factory any) (any, error) {
		hook, ok := factory.(Updater)
		if !ok {
			return nil, &NotSupportedError{ObjectType: objectType, Operation: "update"}
		}
		return hook.Update(ctx, instance)
	})
}

func (l *Local) Delete(ctx context.Context, objectType string, criteria any) (any, error) {
	return l.call(ctx, "delete", objectType, func(factory any) (any, error) {
		hook, ok := factory.(Deleter)
		if !ok {
			return nil, &NotSupportedError{ObjectType: objectType, Operation: "delete"}
		}
		return hook.Delete(ctx, criteria)
	})
}

func asynchronous(ctx context.Context) context.Context {
	cc := CallContextFrom(ctx)
	cc.Async = true
	return WithCallContext(ctx, cc)
}

func (l *Local) CreateAsync(ctx context.Context, objectType string, criteria any) *Pending[any] {
	ctx = asynchronous(ctx)
	return Go(func() (any, error) {
		return l.Create(ctx, objectType, criteria)
	})
}

func (l *Local) FetchAsync(ctx context.Context, objectType string, criteria any) *Pending[any] {
	ctx = asynchronous(ctx)
	return Go(func() (any, error) {
		return l.Fetch(ctx, objectType, criteria)
	})
}

func (l *Local) UpdateAsync(ctx context.Context, instance any) *Pending[any] {
	ctx = asynchronous(ctx)
	return Go(func() (any, error) {
		return l.Update(ctx, instance)
	})
}

func (l *Local) DeleteAsync(ctx context.Context, objectType string, criteria any) *Pending[any] {
	ctx = asynchronous(ctx)
	return Go(func() (any, error) {
		return l.Delete(ctx, objectType, criteria)
	})
}

func (l *Local) call(ctx context.Context, operation, objectType string, f func(factory any) (any, error)) (result any, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%s '%s': panic: %v", operation, objectType, r)
		}
		l.metrics.observe(operation, err, time.Since(start))
		if err != nil && l.logf != nil {
			cc := CallContextFrom(ctx)
			l.logf("dataportal: %s '%s' (request %s): %s", operation, objectType, cc.RequestID, err.Error())
		}
	}()

	l.mutex.RLock()
	factory, ok := l.factories[objectType]
	l.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s '%s': %w", operation, objectType, ErrUnknownObjectType)
	}

	return f(factory)
}
