package events

import (
	"context"
	"errors"
	"testing"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"github.com/stretchr/testify/require"
)

type page struct{ HTML string }

func TestBroadcastOrderAndReceipt(t *testing.T) {
	b := NewBus()
	var calls []string
	for _, id := range []string{"a", "b", "c"} {
		b.Bind("compile.start", id, func(_ context.Context, _ string, _ any) (any, error) {
			calls = append(calls, id)
			return id + "!", nil
		})
	}

	r, err := b.Broadcast(context.Background(), "compile.start", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, calls)
	require.Len(t, r.Results, 3)
	v, ok := r.Value("b")
	require.True(t, ok)
	require.Equal(t, "b!", v)
}

func TestBindIsIdempotentPerID(t *testing.T) {
	b := NewBus()
	n := 0
	fn := func(context.Context, string, any) (any, error) { n++; return nil, nil }

	require.True(t, b.Bind("e", "x", fn))
	require.False(t, b.Bind("e", "x", fn))
	require.True(t, b.Bind("other", "x", fn))

	_, err := b.Broadcast(context.Background(), "e", nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1, b.Count("e"))
}

func TestBroadcastFailFast(t *testing.T) {
	b := NewBus()
	boom := errors.New("boom")
	ran := false
	b.Bind("e", "first", func(context.Context, string, any) (any, error) { return nil, boom })
	b.Bind("e", "second", func(context.Context, string, any) (any, error) { ran = true; return nil, nil })

	_, err := b.Broadcast(context.Background(), "e", nil)
	require.ErrorIs(t, err, boom)
	require.False(t, ran)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryPlugin))
}

func TestPayloadIsMutable(t *testing.T) {
	b := NewBus()
	On(b, OutputTemplate, "upper", func(_ context.Context, p *page) error {
		p.HTML += "<!-- one -->"
		return nil
	})
	On(b, OutputTemplate, "lower", func(_ context.Context, p *page) error {
		p.HTML += "<!-- two -->"
		return nil
	})

	p := &page{HTML: "<html>"}
	_, err := b.Broadcast(context.Background(), OutputTemplate, p)
	require.NoError(t, err)
	require.Equal(t, "<html><!-- one --><!-- two -->", p.HTML)
}

func TestOnRejectsWrongPayload(t *testing.T) {
	b := NewBus()
	On(b, "e", "typed", func(context.Context, *page) error { return nil })

	_, err := b.Broadcast(context.Background(), "e", "not a page")
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))
}

func TestOnceFiresAtMostOnceUntilReset(t *testing.T) {
	b := NewBus()
	n := 0
	handler := func(context.Context, string, any) (any, error) { n++; return nil, nil }
	b.Bind(ContextEntered("feed"), "count", handler)

	for range 3 {
		_, _, err := b.Once(context.Background(), ContextEntered("feed"), nil)
		require.NoError(t, err)
	}
	require.Equal(t, 1, n)
	require.True(t, b.Fired("context.feed"))

	b.Reset()
	require.False(t, b.Fired("context.feed"))
	b.Bind(ContextEntered("feed"), "count", handler)
	_, ran, err := b.Once(context.Background(), ContextEntered("feed"), nil)
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, 2, n)
}

func TestOnceSkipsAfterPlainBroadcast(t *testing.T) {
	b := NewBus()
	_, err := b.Broadcast(context.Background(), "e", nil)
	require.NoError(t, err)

	_, ran, err := b.Once(context.Background(), "e", nil)
	require.NoError(t, err)
	require.False(t, ran)
}

func TestUnbind(t *testing.T) {
	b := NewBus()
	b.Bind("e", "x", func(context.Context, string, any) (any, error) { return nil, nil })
	require.True(t, b.Unbind("e", "x"))
	require.False(t, b.Unbind("e", "x"))
	require.Zero(t, b.Count("e"))
}
