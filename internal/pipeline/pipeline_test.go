package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaleed/warden/internal/domain"
)

func passCheck(name string) Check {
	return Check{
		Name: name,
		Test: func(context.Context) (bool, error) { return true, nil },
		Fail: domain.ErrInvalidInput,
	}
}

func failCheck(name string, kind error) Check {
	return Check{
		Name: name,
		Test: func(context.Context) (bool, error) { return false, nil },
		Fail: kind,
	}
}

func TestRunShortCircuitsOnFirstFailure(t *testing.T) {
	var evaluated []string
	record := func(name string, ok bool, kind error) Check {
		return Check{
			Name: name,
			Test: func(context.Context) (bool, error) {
				evaluated = append(evaluated, name)
				return ok, nil
			},
			Fail: kind,
		}
	}

	mutated := false
	_, err := Run(context.Background(),
		[]Check{
			record("first", true, domain.ErrInvalidInput),
			record("second", false, domain.ErrAlreadyExists),
			record("third", false, domain.ErrInvalidInput),
		},
		func(context.Context) (struct{}, error) {
			mutated = true
			return struct{}{}, nil
		},
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, []string{"first", "second"}, evaluated)
	assert.False(t, mutated)

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "second", failure.Check)
}

func TestRunAllChecksPassThenMutates(t *testing.T) {
	result, err := Run(context.Background(),
		[]Check{passCheck("a"), passCheck("b")},
		func(context.Context) (int, error) { return 42, nil },
	)

	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestRunCheckErrorAbortsWithoutFailure(t *testing.T) {
	boom := errors.New("storage down")
	_, err := Run(context.Background(),
		[]Check{{
			Name: "lookup",
			Test: func(context.Context) (bool, error) { return false, boom },
			Fail: domain.ErrInvalidInput,
		}},
		func(context.Context) (struct{}, error) { return struct{}{}, nil },
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var failure *Failure
	assert.False(t, errors.As(err, &failure))
}

func TestRunRemapsCommitTimeConstraintViolation(t *testing.T) {
	_, err := Run(context.Background(),
		[]Check{passCheck("login is free")},
		func(context.Context) (struct{}, error) {
			return struct{}{}, domain.ErrAlreadyExists
		},
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestRunPropagatesOtherMutationErrors(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := Run(context.Background(),
		nil,
		func(context.Context) (struct{}, error) { return struct{}{}, boom },
	)

	assert.ErrorIs(t, err, boom)
}

func TestRunEffectsFireAfterMutation(t *testing.T) {
	var got []int
	result, err := Run(context.Background(),
		[]Check{passCheck("ok")},
		func(context.Context) (int, error) { return 7, nil },
		func(_ context.Context, r int) { got = append(got, r) },
		func(_ context.Context, r int) { got = append(got, r*2) },
	)

	require.NoError(t, err)
	assert.Equal(t, 7, result)
	assert.Equal(t, []int{7, 14}, got)
}

func TestRunEffectsSkippedOnRejection(t *testing.T) {
	fired := false
	_, err := Run(context.Background(),
		[]Check{failCheck("nope", domain.ErrInvalidInput)},
		func(context.Context) (int, error) { return 0, nil },
		func(context.Context, int) { fired = true },
	)

	require.Error(t, err)
	assert.False(t, fired)
}

func TestRunEffectsSkippedOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fired := false
	_, err := Run(ctx,
		nil,
		func(context.Context) (int, error) {
			cancel()
			return 1, nil
		},
		func(context.Context, int) { fired = true },
	)

	require.NoError(t, err)
	assert.False(t, fired)
}

func TestFailureUnwrapsToKind(t *testing.T) {
	failure := &Failure{Kind: domain.ErrForbidden, Check: "admin role required"}

	assert.ErrorIs(t, failure, domain.ErrForbidden)
	assert.Equal(t, "admin role required", failure.Error())
}
