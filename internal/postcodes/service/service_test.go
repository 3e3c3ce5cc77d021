package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postcode_lookup/internal/postcodes/guard"
	"postcode_lookup/internal/postcodes/transport"
	"postcode_lookup/platform/apperr"
	"postcode_lookup/platform/logger"
)

type fakeSender struct {
	mu       sync.Mutex
	requests []transport.LookupRequest
	status   int
	body     string
	err      error
}

func (f *fakeSender) Do(_ context.Context, req transport.LookupRequest) (*transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &transport.Response{StatusCode: status, Body: []byte(f.body)}, nil
}

func builder(postcode, homeNumber string) transport.LookupRequest {
	return transport.LookupRequest{URL: "https://lookup.test/?postcode=" + postcode + "&home_number=" + homeNumber}
}

func newService(sender Sender) *Service {
	return New(sender, builder, logger.Discard())
}

func lookup(t *testing.T, svc *Service, postcode, homeNumber string) (transport.Address, error) {
	t.Helper()
	return svc.Lookup(context.Background(), LookupParams{
		Postcode:   postcode,
		HomeNumber: homeNumber,
		Guard:      guard.New(),
	})
}

func TestLookupSuccess(t *testing.T) {
	sender := &fakeSender{body: `{"success":true,"data":{"postcode":"1234AB","home_number":10,"city":"Utrecht"}}`}
	svc := newService(sender)

	var got transport.Address
	addr, err := svc.Lookup(context.Background(), LookupParams{
		Postcode:   " 1234AB ",
		HomeNumber: "10 ",
		Guard:      guard.New(),
		Success:    func(a transport.Address) { got = a },
	})
	require.NoError(t, err)
	assert.Equal(t, "Utrecht", addr.Text("city"))
	assert.Equal(t, "10", addr.HomeNumber())
	assert.Equal(t, addr, got)

	require.Len(t, sender.requests, 1)
	assert.Equal(t, "https://lookup.test/?postcode=1234AB&home_number=10", sender.requests[0].URL)
}

func TestMissingInputNeverSends(t *testing.T) {
	sender := &fakeSender{body: `{"success":true,"data":{}}`}
	svc := newService(sender)

	_, err := lookup(t, svc, "  ", "10")
	assert.True(t, apperr.Is(err, apperr.KindMissingInput))
	assert.Contains(t, err.Error(), "no postcode provided")

	_, err = lookup(t, svc, "1234AB", "")
	assert.True(t, apperr.Is(err, apperr.KindMissingInput))
	assert.Contains(t, err.Error(), "no home number provided")

	assert.Empty(t, sender.requests)
}

func TestCustomBuilderReplacesDefault(t *testing.T) {
	sender := &fakeSender{body: `{"success":true,"data":{"postcode":"1234AB","home_number":"1"}}`}
	svc := newService(sender)

	_, err := svc.Lookup(context.Background(), LookupParams{
		Postcode:   "1234AB",
		HomeNumber: "1",
		Guard:      guard.New(),
		BuildRequest: func(postcode, homeNumber string) transport.LookupRequest {
			return transport.LookupRequest{URL: "/custom/" + postcode + "/" + homeNumber, Method: http.MethodPost}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/custom/1234AB/1", sender.requests[0].URL)
	assert.Equal(t, http.MethodPost, sender.requests[0].Method)
}

func TestEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    apperr.Kind
		message string
	}{
		{"not json", `<html>`, apperr.KindMalformedResponse, "failed to parse response"},
		{"not an object", `[1,2]`, apperr.KindMalformedResponse, "failed to parse response"},
		{"null body", `null`, apperr.KindMalformedResponse, "failed to parse response"},
		{"missing success", `{"data":{}}`, apperr.KindMalformedResponse, `missing "success" field`},
		{"service error text", `{"success":false,"error":"Unknown address"}`, apperr.KindService, "Unknown address"},
		{"service error default", `{"success":false}`, apperr.KindService, "failed to fetch postcode data"},
		{"empty error text", `{"success":0,"error":""}`, apperr.KindService, "failed to fetch postcode data"},
		{"missing data", `{"success":true}`, apperr.KindMalformedResponse, `missing "data" field`},
		{"data not object", `{"success":true,"data":"1234AB"}`, apperr.KindMalformedResponse, "not an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(&fakeSender{body: tt.body})
			called := false

			_, err := svc.Lookup(context.Background(), LookupParams{
				Postcode:   "1234AB",
				HomeNumber: "1",
				Guard:      guard.New(),
				Success:    func(transport.Address) { called = true },
			})
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.GetKind(err))
			assert.Contains(t, err.Error(), tt.message)
			assert.False(t, called)
		})
	}
}

func TestTruthySuccess(t *testing.T) {
	svc := newService(&fakeSender{body: `{"success":"yes","data":{"postcode":"1234AB","home_number":"1"}}`})

	_, err := lookup(t, svc, "1234AB", "1")
	assert.NoError(t, err)
}

func TestUpstreamFailures(t *testing.T) {
	svc := newService(&fakeSender{status: http.StatusNotFound, body: `{"success":false}`})
	_, err := lookup(t, svc, "1234AB", "1")
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	var statusErr *transport.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Response.StatusCode)

	boom := errors.New("dial tcp: connection refused")
	svc = newService(&fakeSender{err: boom})
	_, err = lookup(t, svc, "1234AB", "1")
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.ErrorIs(t, err, boom)
}

type blockingSender struct {
	release chan struct{}
	calls   chan string
}

func (b *blockingSender) Do(ctx context.Context, req transport.LookupRequest) (*transport.Response, error) {
	b.calls <- req.URL
	if req.URL == "slow" {
		<-b.release
	}
	return &transport.Response{StatusCode: http.StatusOK, Body: []byte(`{"success":true,"data":{"postcode":"1234AB","home_number":"1"}}`)}, nil
}

func TestSupersededLookupReportsNothing(t *testing.T) {
	sender := &blockingSender{release: make(chan struct{}), calls: make(chan string, 2)}
	svc := New(sender, nil, logger.Discard())
	g := guard.New()

	successes := make(chan string, 2)
	params := func(url string) LookupParams {
		return LookupParams{
			Postcode:   "1234AB",
			HomeNumber: "1",
			Guard:      g,
			BuildRequest: func(string, string) transport.LookupRequest {
				return transport.LookupRequest{URL: url}
			},
			Success: func(transport.Address) { successes <- url },
		}
	}

	slow := make(chan error, 1)
	go func() {
		_, err := svc.Lookup(context.Background(), params("slow"))
		slow <- err
	}()
	<-sender.calls

	_, err := svc.Lookup(context.Background(), params("fast"))
	require.NoError(t, err)
	close(sender.release)

	assert.ErrorIs(t, <-slow, guard.ErrSuperseded)
	assert.Equal(t, "fast", <-successes)
	assert.Empty(t, successes)
}

func TestMissingBuilderIsInternal(t *testing.T) {
	svc := New(&fakeSender{}, nil, logger.Discard())

	_, err := lookup(t, svc, "1234AB", "1")
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestCallerIssuedTicketIsHonored(t *testing.T) {
	sender := &fakeSender{body: `{"success":true,"data":{"city":"Utrecht"}}`}
	svc := newService(sender)
	g := guard.New()

	older := g.Issue(context.Background())
	newer := g.Issue(context.Background())

	called := false
	_, err := svc.Lookup(context.Background(), LookupParams{
		Postcode:   "1234AB",
		HomeNumber: "10",
		Ticket:     older,
		Success:    func(transport.Address) { called = true },
	})
	assert.ErrorIs(t, err, guard.ErrSuperseded)
	assert.False(t, called)
	assert.Empty(t, sender.requests)

	addr, err := svc.Lookup(context.Background(), LookupParams{Postcode: "1234AB", HomeNumber: "10", Ticket: newer})
	require.NoError(t, err)
	assert.Equal(t, "Utrecht", addr.Text("city"))
	assert.Len(t, sender.requests, 1)
}

func TestTicketIsReleasedOnMissingInput(t *testing.T) {
	svc := newService(&fakeSender{})
	ticket := guard.New().Issue(context.Background())

	_, err := svc.Lookup(context.Background(), LookupParams{Postcode: "1234AB", Ticket: ticket})
	assert.True(t, apperr.Is(err, apperr.KindMissingInput))

	_, err = ticket.Do(func(ctx context.Context) (*transport.Response, error) {
		return nil, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
}
