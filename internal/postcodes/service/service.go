// Package service resolves a postcode and house number to an address through
// the remote lookup service.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"postcode_lookup/internal/postcodes/guard"
	"postcode_lookup/internal/postcodes/transport"
	"postcode_lookup/platform/apperr"
	"postcode_lookup/platform/logger"
)

const op = "postcodes.Lookup"

// Sender performs one lookup round trip. *client.Client satisfies it.
type Sender interface {
	Do(ctx context.Context, req transport.LookupRequest) (*transport.Response, error)
}

// LookupParams are the inputs of a single lookup. Zero values fall back to the
// service defaults.
type LookupParams struct {
	Postcode     string
	HomeNumber   string
	BuildRequest transport.RequestBuilder
	Success      func(transport.Address)
	Guard        *guard.Guard
	// Ticket, when set, was issued by the caller and takes precedence over
	// Guard. The lookup always releases it.
	Ticket *guard.Ticket
}

// Service is the lookup engine.
type Service struct {
	sender  Sender
	builder transport.RequestBuilder
	log     *logger.Logger
}

// New creates a lookup service. builder is used when a lookup does not bring
// its own.
func New(sender Sender, builder transport.RequestBuilder, log *logger.Logger) *Service {
	return &Service{
		sender:  sender,
		builder: builder,
		log:     log,
	}
}

// Lookup resolves one address. Superseded lookups return guard.ErrSuperseded
// and never call Success.
func (s *Service) Lookup(ctx context.Context, p LookupParams) (transport.Address, error) {
	start := time.Now()
	postcode := strings.TrimSpace(p.Postcode)
	homeNumber := strings.TrimSpace(p.HomeNumber)

	addr, err := s.lookup(ctx, postcode, homeNumber, p)

	outcome := outcomeOf(err)
	lookupsTotal.WithLabelValues(outcome).Inc()
	if errors.Is(err, guard.ErrSuperseded) {
		s.log.Lookup(outcome, postcode, homeNumber, time.Since(start), nil)
		return nil, err
	}
	s.log.Lookup(outcome, postcode, homeNumber, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if p.Success != nil {
		p.Success(addr)
	}
	return addr, nil
}

func (s *Service) lookup(ctx context.Context, postcode, homeNumber string, p LookupParams) (transport.Address, error) {
	if p.Ticket != nil {
		defer p.Ticket.Release()
	}
	if postcode == "" {
		return nil, apperr.MissingInput("no postcode provided").WithOp(op)
	}
	if homeNumber == "" {
		return nil, apperr.MissingInput("no home number provided").WithOp(op)
	}

	build := p.BuildRequest
	if build == nil {
		build = s.builder
	}
	if build == nil {
		return nil, apperr.Internal("no request builder configured").WithOp(op)
	}
	req := build(postcode, homeNumber)

	ticket := p.Ticket
	if ticket == nil {
		g := p.Guard
		if g == nil {
			g = guard.Default
		}
		ticket = g.Issue(ctx)
	}
	resp, err := ticket.Do(func(ctx context.Context) (*transport.Response, error) {
		return s.sender.Do(ctx, req)
	})
	if err != nil {
		return nil, upstreamError(err)
	}

	return decodeEnvelope(resp.Body)
}

func upstreamError(err error) error {
	if errors.Is(err, guard.ErrSuperseded) {
		return err
	}
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		return apperr.Upstream(statusErr.Error(), err).WithOp(op)
	}
	return apperr.Upstream("lookup service unreachable", err).WithOp(op)
}

// decodeEnvelope reads {success, data, error}. success and error are tested
// for JavaScript truthiness.
func decodeEnvelope(body []byte) (transport.Address, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil || members == nil {
		return nil, apperr.Wrap(apperr.KindMalformedResponse,
			"failed to parse response from postcode lookup service", err).WithOp(op)
	}

	success, ok := members["success"]
	if !ok {
		return nil, apperr.MalformedResponse(`invalid response from postcode lookup service, missing "success" field`).WithOp(op)
	}
	if !truthy(success) {
		if msg, ok := members["error"]; ok && truthy(msg) {
			return nil, apperr.Service(text(msg)).WithOp(op)
		}
		return nil, apperr.Service("failed to fetch postcode data").WithOp(op)
	}

	data, ok := members["data"]
	if !ok {
		return nil, apperr.MalformedResponse(`invalid response from postcode lookup service, missing "data" field`).WithOp(op)
	}

	var addr transport.Address
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&addr); err != nil || addr == nil {
		return nil, apperr.Wrap(apperr.KindMalformedResponse,
			`invalid response from postcode lookup service, "data" is not an object`, err).WithOp(op)
	}
	return addr, nil
}

func decodeValue(raw json.RawMessage) any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

// truthy: false, null, 0, NaN and "" are falsy; everything else is truthy.
func truthy(raw json.RawMessage) bool {
	switch v := decodeValue(raw).(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

func text(raw json.RawMessage) string {
	if s, ok := decodeValue(raw).(string); ok {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, guard.ErrSuperseded) {
		return OutcomeSuperseded
	}
	return apperr.GetKind(err).String()
}
