package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunAll(t *testing.T) {
	t.Parallel()

	t.Run("runs every task and waits for all", func(t *testing.T) {
		t.Parallel()

		var ran atomic.Int32
		tasks := []Task{
			{Name: "a", Run: func(context.Context) error { ran.Add(1); return nil }},
			{Name: "b", Run: func(context.Context) error { ran.Add(1); return nil }},
			{Name: "c", Run: func(context.Context) error { ran.Add(1); return nil }},
		}

		RunAll(context.Background(), slog.New(slog.DiscardHandler), tasks)
		require.Equal(t, int32(3), ran.Load())
	})

	t.Run("a failing task does not stop the others", func(t *testing.T) {
		t.Parallel()

		var ran atomic.Int32
		tasks := []Task{
			{Name: "fails", Run: func(context.Context) error { return errors.New("sdk down") }},
			{Name: "ok", Run: func(context.Context) error { ran.Add(1); return nil }},
		}

		RunAll(context.Background(), slog.New(slog.DiscardHandler), tasks)
		require.Equal(t, int32(1), ran.Load())
	})

	t.Run("a panicking task is contained", func(t *testing.T) {
		t.Parallel()

		var ran atomic.Int32
		tasks := []Task{
			{Name: "panics", Run: func(context.Context) error { panic("sdk bug") }},
			{Name: "ok", Run: func(context.Context) error { ran.Add(1); return nil }},
		}

		require.NotPanics(t, func() {
			RunAll(context.Background(), slog.New(slog.DiscardHandler), tasks)
		})
		require.Equal(t, int32(1), ran.Load())
	})

	t.Run("no tasks is a no-op", func(t *testing.T) {
		t.Parallel()
		RunAll(context.Background(), nil, nil)
	})
}
