package guard

import (
	"context"
	"errors"
	"testing"

	"postcode_lookup/internal/postcodes/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(status int) Call {
	return func(context.Context) (*transport.Response, error) {
		return &transport.Response{StatusCode: status, Body: []byte(`{}`)}, nil
	}
}

func TestLatestCallSucceeds(t *testing.T) {
	g := New()

	resp, err := g.Do(context.Background(), respond(200))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestNonSuccessStatusIsStatusError(t *testing.T) {
	g := New()

	resp, err := g.Do(context.Background(), respond(503))
	var statusErr *transport.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 503, statusErr.Response.StatusCode)
	assert.Same(t, resp, statusErr.Response)
}

func TestOlderCallIsSupersededAndCancelled(t *testing.T) {
	g := New()
	started := make(chan struct{})
	finish := make(chan struct{})
	cancelled := make(chan bool, 1)

	type result struct {
		resp *transport.Response
		err  error
	}
	first := make(chan result, 1)
	go func() {
		resp, err := g.Do(context.Background(), func(ctx context.Context) (*transport.Response, error) {
			close(started)
			<-finish
			cancelled <- ctx.Err() != nil
			return &transport.Response{StatusCode: 200}, nil
		})
		first <- result{resp, err}
	}()

	<-started
	resp, err := g.Do(context.Background(), respond(200))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	close(finish)
	r := <-first
	assert.ErrorIs(t, r.err, ErrSuperseded)
	assert.Nil(t, r.resp)
	assert.True(t, <-cancelled)
}

func TestAbortOfSupersededCallIsNotATransportError(t *testing.T) {
	g := New()
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := g.Do(context.Background(), func(ctx context.Context) (*transport.Response, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		})
		done <- err
	}()

	<-started
	g.Supersede()
	assert.ErrorIs(t, <-done, ErrSuperseded)
}

func TestTransportErrorPropagates(t *testing.T) {
	g := New()
	boom := errors.New("connection refused")

	_, err := g.Do(context.Background(), func(context.Context) (*transport.Response, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCallerCancellationIsNotSuperseded(t *testing.T) {
	g := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Do(ctx, func(ctx context.Context) (*transport.Response, error) {
		return nil, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrSuperseded)
}

func TestSupersedeDropsCompletedButUnappliedResult(t *testing.T) {
	g := New()

	_, err := g.Do(context.Background(), func(context.Context) (*transport.Response, error) {
		g.Supersede()
		return &transport.Response{StatusCode: 200}, nil
	})
	assert.ErrorIs(t, err, ErrSuperseded)

	_, err = g.Do(context.Background(), respond(200))
	assert.NoError(t, err, "a guard keeps working after Supersede")
}

func TestGuardsAreIndependent(t *testing.T) {
	a, b := New(), New()

	_, err := a.Do(context.Background(), func(context.Context) (*transport.Response, error) {
		_, innerErr := b.Do(context.Background(), respond(200))
		require.NoError(t, innerErr)
		return &transport.Response{StatusCode: 200}, nil
	})
	assert.NoError(t, err)
}

func TestIssueOrderDecidesTheLatest(t *testing.T) {
	g := New()
	older := g.Issue(context.Background())
	newer := g.Issue(context.Background())

	assert.False(t, older.Latest())
	assert.True(t, newer.Latest())

	resp, err := newer.Do(respond(200))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// Settling the older ticket afterwards never reaches the transport.
	called := false
	_, err = older.Do(func(context.Context) (*transport.Response, error) {
		called = true
		return &transport.Response{StatusCode: 200}, nil
	})
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.False(t, called)
}

func TestReleaseCancelsTheTicket(t *testing.T) {
	g := New()
	ticket := g.Issue(context.Background())

	ticket.Release()
	ticket.Release()

	assert.True(t, ticket.Latest(), "releasing does not supersede")
	_, err := ticket.Do(func(ctx context.Context) (*transport.Response, error) {
		return nil, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}
