package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloomwatch/internal/domain/model"
)

func TestValidate(t *testing.T) {
	ids, err := Validate([]string{" kyoto ", "keukenhof"}, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"kyoto", "keukenhof"}, ids)

	_, err = Validate(nil, 3)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = Validate([]string{"kyoto", " "}, 3)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = Validate([]string{"a", "b", "c", "d"}, 3)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestValidateMessages(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{"empty selection", []string{}, "At least one region must be selected"},
		{"blank among valid ids", []string{"kyoto", " ", "keukenhof"}, "Region id at position 1 is blank"},
		{"only blank ids", []string{""}, "Region id at position 0 is blank"},
		{"too many", []string{"a", "b", "c", "d"}, "At most 3 regions can be processed in one batch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.ids, 3)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrInvalidInput)
			assert.Equal(t, tt.want, model.PublicMessage(err))
		})
	}
}

func TestRunKeepsSelectionOrder(t *testing.T) {
	delays := map[string]time.Duration{"a": 30 * time.Millisecond, "b": 0, "c": 10 * time.Millisecond}
	results := Run(context.Background(), []string{"a", "b", "c"}, 3, func(_ context.Context, id string) (string, error) {
		time.Sleep(delays[id])
		return "value-" + id, nil
	})

	require.Len(t, results, 3)
	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, id, results[i].ID)
		assert.Equal(t, "value-"+id, results[i].Value)
		assert.NoError(t, results[i].Err)
	}
}

func TestRunServesDuplicatesOnce(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}
	results := Run(context.Background(), []string{"a", "b", "a"}, 2, func(_ context.Context, id string) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		calls[id]++
		return len(id), nil
	})

	assert.Equal(t, map[string]int{"a": 1, "b": 1}, calls)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[2].ID)
	assert.Equal(t, results[0], results[2])
}

func TestRunCapturesErrorsPerItem(t *testing.T) {
	boom := errors.New("boom")
	results := Run(context.Background(), []string{"ok", "bad", "ok2"}, 1, func(_ context.Context, id string) (string, error) {
		if id == "bad" {
			return "", boom
		}
		return id, nil
	})

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, "ok2", results[2].Value)
}

func TestRunBoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	ids := []string{"a", "b", "c", "d", "e", "f"}
	Run(context.Background(), ids, 2, func(_ context.Context, _ string) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := Run(ctx, []string{"a"}, 1, func(context.Context, string) (int, error) {
		return 1, nil
	})
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
