package dataportal

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/fulldump/biff"
	"github.com/prometheus/client_golang/prometheus"
)

type counterFactory struct {
	created int
	last    CallContext
}

func (f *counterFactory) Create(ctx context.Context, criteria any) (any, error) {
	f.created++
	f.last = CallContextFrom(ctx)
	return criteria, nil
}

func (f *counterFactory) Fetch(ctx context.Context, criteria any) (any, error) {
	if criteria == "explode" {
		panic("kaboom")
	}
	if criteria == "missing" {
		return nil, errors.New("not found")
	}
	return "fetched " + criteria.(string), nil
}

type kindedThing struct{}

func (kindedThing) Kind() string { return "counter" }

func TestLocal(t *testing.T) {
	Alternative("Local dispatcher with a counter factory", func(a *A) {
		registry := prometheus.NewRegistry()
		d := NewLocal(&Options{Registerer: registry})
		factory := &counterFactory{}
		d.Register("counter", factory)

		ctx := WithCallContext(context.Background(), CallContext{Principal: "alice", RequestID: "r1"})

		AssertFalse(d.IsRemote())

		a.Alternative("Create", func(a *A) {
			result, err := d.Create(ctx, "counter", 7)
			AssertNil(err)
			AssertEqual(result, 7)
			AssertEqual(factory.created, 1)
			AssertEqual(factory.last, CallContext{Principal: "alice", RequestID: "r1"})
		})

		a.Alternative("Fetch", func(a *A) {
			result, err := d.Fetch(ctx, "counter", "one")
			AssertNil(err)
			AssertEqual(result, "fetched one")
		})

		a.Alternative("Missing hook", func(a *A) {
			_, err := d.Update(ctx, kindedThing{})
			AssertTrue(errors.Is(err, ErrNotSupported))
			notSupported := &NotSupportedError{}
			AssertTrue(errors.As(err, &notSupported))
			AssertEqual(notSupported.Operation, "update")
			AssertEqual(notSupported.ObjectType, "counter")

			_, err = d.Delete(ctx, "counter", nil)
			AssertTrue(errors.Is(err, ErrNotSupported))
		})

		a.Alternative("Unknown object type", func(a *A) {
			_, err := d.Create(ctx, "ghost", nil)
			AssertTrue(errors.Is(err, ErrUnknownObjectType))
		})

		a.Alternative("Panics become errors", func(a *A) {
			_, err := d.Fetch(ctx, "counter", "explode")
			AssertNotNil(err)
		})

		a.Alternative("Async marks the call context", func(a *A) {
			p := d.CreateAsync(ctx, "counter", 3)
			result, err := p.Wait(context.Background())
			AssertNil(err)
			AssertEqual(result, 3)
			AssertTrue(factory.last.Async)
			AssertEqual(factory.last.Principal, "alice")
		})

		a.Alternative("Async failure", func(a *A) {
			p := d.FetchAsync(ctx, "counter", "missing")
			_, err := p.Wait(context.Background())
			AssertNotNil(err)
		})

		a.Alternative("Metrics", func(a *A) {
			d.Create(ctx, "counter", 1)
			d.Create(ctx, "ghost", 1)
			d.Delete(ctx, "counter", 1)

			families, err := registry.Gather()
			AssertNil(err)

			outcomes := map[string]float64{}
			for _, family := range families {
				if family.GetName() != "editdb_dataportal_calls_total" {
					continue
				}
				for _, m := range family.GetMetric() {
					key := ""
					for _, label := range m.GetLabel() {
						key += label.GetName() + "=" + label.GetValue() + ";"
					}
					outcomes[key] = m.GetCounter().GetValue()
				}
			}
			AssertEqual(outcomes, map[string]float64{
				"operation=create;outcome=ok;":            1,
				"operation=create;outcome=unknown_type;":  1,
				"operation=delete;outcome=not_supported;": 1,
			})
		})
	})
}

func TestPending(t *testing.T) {
	Alternative("Pending", func(a *A) {
		p := NewPending[int]()

		_, _, ok := p.Result()
		AssertFalse(ok)

		a.Alternative("First completion wins", func(a *A) {
			AssertTrue(p.Resolve(1))
			AssertFalse(p.Fail(errors.New("late")))
			AssertFalse(p.Resolve(2))

			value, err, ok := p.Result()
			AssertTrue(ok)
			AssertNil(err)
			AssertEqual(value, 1)
		})

		a.Alternative("Failure first", func(a *A) {
			boom := errors.New("boom")
			AssertTrue(p.Fail(boom))
			AssertFalse(p.Resolve(2))

			_, err := p.Wait(context.Background())
			AssertEqual(err, boom)
		})

		a.Alternative("Wait gives up with its context", func(a *A) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			_, err := p.Wait(ctx)
			AssertEqual(err, context.DeadlineExceeded)

			// the call itself is still pending
			_, _, ok := p.Result()
			AssertFalse(ok)
		})
	})
}

func TestGo_RecoversPanics(t *testing.T) {
	p := Go(func() (string, error) {
		panic("nope")
	})
	<-p.Done()
	_, err, ok := p.Result()
	AssertTrue(ok)
	AssertNotNil(err)
}
