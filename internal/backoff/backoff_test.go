package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitter(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := Jitter(time.Second)
		assert.GreaterOrEqual(t, d, 850*time.Millisecond)
		assert.LessOrEqual(t, d, 1150*time.Millisecond)
	}
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Wait(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetry(t *testing.T) {
	errTemporary := errors.New("temporary")
	errFatal := errors.New("fatal")
	retryable := func(err error) bool { return errors.Is(err, errTemporary) }

	tests := []struct {
		name    string
		retries int
		errs    []error
		calls   int
		wantErr error
	}{
		{name: "success", retries: 3, errs: []error{nil}, calls: 1},
		{name: "no-retries", retries: 0, errs: []error{errTemporary, nil}, calls: 1, wantErr: errTemporary},
		{name: "retried", retries: 2, errs: []error{errTemporary, errTemporary, nil}, calls: 3},
		{name: "exhausted", retries: 1, errs: []error{errTemporary, errTemporary, nil}, calls: 2, wantErr: errTemporary},
		{name: "not-retryable", retries: 3, errs: []error{errFatal, nil}, calls: 1, wantErr: errFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tt.retries, time.Millisecond, retryable, func() error {
				err := tt.errs[calls]
				calls++
				return err
			})
			assert.Equal(t, tt.calls, calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
