package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handray/internal/tracking"
)

func frameAt(t float64) tracking.Frame {
	return tracking.Frame{Time: t}
}

func TestPush_FIFO(t *testing.T) {
	p := NewPush(4)
	for i := 1; i <= 3; i++ {
		require.NoError(t, p.Push(frameAt(float64(i))))
	}
	assert.Equal(t, 3, p.Len())

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		f, err := p.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, float64(i), f.Time)
	}
	assert.Zero(t, p.Dropped())
}

func TestPush_DropsOldest(t *testing.T) {
	p := NewPush(2)
	for i := 1; i <= 5; i++ {
		require.NoError(t, p.Push(frameAt(float64(i))))
	}
	assert.Equal(t, uint64(3), p.Dropped())

	ctx := context.Background()
	f, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4.0, f.Time)
	f, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, f.Time)
}

func TestPush_NextWaits(t *testing.T) {
	p := NewPush(1)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = p.Push(frameAt(7))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	f, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7.0, f.Time)
}

func TestPush_ContextCancel(t *testing.T) {
	p := NewPush(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPush_Close(t *testing.T) {
	p := NewPush(0)
	require.NoError(t, p.Push(frameAt(1)))

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err := p.Next(context.Background())
	assert.True(t, errors.Is(err, ErrClosed), "buffered frames are discarded")
	assert.ErrorIs(t, p.Push(frameAt(2)), ErrClosed)
}

func TestPush_CloseWakesNext(t *testing.T) {
	p := NewPush(1)
	errc := make(chan error, 1)
	go func() {
		_, err := p.Next(context.Background())
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, p.Close())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Close")
	}
}
