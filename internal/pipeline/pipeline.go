// Package pipeline runs the ordered precondition checks that gate every
// mutating account operation.
//
// A mutation is expressed as an ordered list of named checks, a mutate
// function, and optional post-mutation effects. Checks run strictly in the
// declared order and short-circuit: the first failing check decides the
// rejection, and neither later checks nor the mutation run after it.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/mvaleed/warden/internal/domain"
)

// Check is a named precondition over the in-flight request and current
// persisted state. Test returns false to reject the request with Fail as the
// error kind and Name as the human-readable detail. A non-nil error from Test
// means the check itself could not be evaluated and aborts the pipeline.
type Check struct {
	Name string
	Test func(ctx context.Context) (bool, error)
	Fail error
}

// Failure is a request rejected by a precondition check. It unwraps to the
// check's error kind so callers can match with errors.Is.
type Failure struct {
	Kind  error
	Check string
}

func (f *Failure) Error() string { return f.Check }

func (f *Failure) Unwrap() error { return f.Kind }

// Effect is a best-effort post-mutation step, such as a notification
// dispatch. Effects run only after the mutation is applied and never on a
// rejected pipeline. Failures inside an effect must not affect the reported
// outcome; implementations log and swallow.
type Effect[T any] func(ctx context.Context, result T)

// Run evaluates checks in order against the current state, then applies the
// mutation and the post-mutation effects.
//
// The first failing check short-circuits into a *Failure; mutate is never
// invoked. A constraint violation surfaced by the store at commit time (a
// race the pre-checks could not see) is remapped to domain.ErrInvalidInput;
// any other mutation error propagates unchanged. Effects are skipped when the
// call has been cancelled.
func Run[T any](ctx context.Context, checks []Check, mutate func(ctx context.Context) (T, error), effects ...Effect[T]) (T, error) {
	var zero T

	for _, check := range checks {
		ok, err := check.Test(ctx)
		if err != nil {
			return zero, fmt.Errorf("check %q: %w", check.Name, err)
		}
		if !ok {
			return zero, &Failure{Kind: check.Fail, Check: check.Name}
		}
	}

	result, err := mutate(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Unique constraint tripped at commit despite the pre-checks
			// passing: a concurrent duplicate. Same class as a rejected
			// argument, distinct from unrelated storage failures.
			return zero, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		return zero, err
	}

	for _, effect := range effects {
		if ctx.Err() != nil {
			break
		}
		effect(ctx, result)
	}

	return result, nil
}
