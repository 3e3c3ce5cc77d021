// Package postcodes provides the postcode lookup bounded context.
// This file defines the public entry point: one-shot lookups and form bindings.
package postcodes

import (
	"context"
	"errors"
	"strings"

	"github.com/sony/gobreaker/v2"

	"postcode_lookup/internal/dom"
	"postcode_lookup/internal/postcodes/binding"
	"postcode_lookup/internal/postcodes/client"
	"postcode_lookup/internal/postcodes/guard"
	"postcode_lookup/internal/postcodes/service"
	"postcode_lookup/internal/postcodes/transport"
	"postcode_lookup/internal/postcodes/validation"
	"postcode_lookup/platform/apperr"
	"postcode_lookup/platform/config"
	"postcode_lookup/platform/logger"
)

// BindSpec maps address field names to inputs. The postcode and home_number
// entries drive lookups; every other entry is filled from the result.
type BindSpec map[string]dom.Element

// LookupOptions configures LookupPostcode. With Bind set the call installs a
// form binding instead of looking anything up.
type LookupOptions struct {
	Postcode   string
	HomeNumber string
	Bind       BindSpec

	// Document gates listener installation on readiness; nil means ready.
	Document dom.Document
	Classes  transport.ClassSet

	Success      func(transport.Address)
	Error        func(error)
	BuildRequest transport.RequestBuilder

	// Guard overrides the process-wide stale-response guard for direct lookups.
	Guard *guard.Guard
}

// Postcodes is the initialized lookup module.
type Postcodes struct {
	client  *client.Client
	service *service.Service
	log     *logger.Logger
}

// New initializes postcode lookups against the configured service URL.
func New(cfg config.LookupConfig, log *logger.Logger) (*Postcodes, error) {
	if strings.TrimSpace(cfg.GetPostcodesAPIURL()) == "" {
		return nil, apperr.Internal("no API URL provided, cannot initialize postcode lookup")
	}

	validation.SetLogger(log)
	apiClient := client.New(cfg, log)
	builder, err := apiClient.DefaultBuilder()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "invalid postcode lookup API URL", err)
	}

	log.Info("postcode lookup initialized", "api_url", cfg.GetPostcodesAPIURL())

	return &Postcodes{
		client:  apiClient,
		service: service.New(apiClient, builder, log),
		log:     log,
	}, nil
}

// Service returns the lookup engine.
func (p *Postcodes) Service() *service.Service {
	return p.service
}

// BreakerState reports the upstream circuit breaker state.
func (p *Postcodes) BreakerState() string {
	return p.client.State().String()
}

// Ping fails while the upstream circuit breaker is open.
func (p *Postcodes) Ping(context.Context) error {
	if p.client.State() == gobreaker.StateOpen {
		return client.ErrCircuitOpen
	}
	return nil
}

// LookupPostcode resolves an address, or installs a binding when opts.Bind is
// set and returns a nil address.
//
// Direct lookups report failures to opts.Error and then return them. A lookup
// overtaken by a newer one returns guard.ErrSuperseded without calling either
// callback.
func (p *Postcodes) LookupPostcode(ctx context.Context, opts LookupOptions) (transport.Address, error) {
	if opts.Bind != nil {
		_, err := p.Bind(ctx, opts)
		return nil, err
	}

	addr, err := p.service.Lookup(ctx, service.LookupParams{
		Postcode:     opts.Postcode,
		HomeNumber:   opts.HomeNumber,
		BuildRequest: opts.BuildRequest,
		Success:      opts.Success,
		Guard:        opts.Guard,
	})
	if errors.Is(err, guard.ErrSuperseded) {
		return nil, err
	}
	if err != nil {
		if opts.Error != nil {
			opts.Error(err)
		}
		return nil, err
	}
	return addr, nil
}

// Bind installs a form binding for opts.Bind. Incomplete specs fail before any
// element is touched.
func (p *Postcodes) Bind(ctx context.Context, opts LookupOptions) (*binding.Binding, error) {
	dependents := make(map[string]dom.Element, len(opts.Bind))
	for field, el := range opts.Bind {
		if field == transport.FieldPostcode || field == transport.FieldHomeNumber {
			continue
		}
		dependents[field] = el
	}

	return binding.Bind(ctx, binding.Config{
		Postcode:     opts.Bind[transport.FieldPostcode],
		HomeNumber:   opts.Bind[transport.FieldHomeNumber],
		Dependents:   dependents,
		Document:     opts.Document,
		Engine:       p.service,
		Classes:      opts.Classes,
		BuildRequest: opts.BuildRequest,
		Success:      opts.Success,
		Error:        opts.Error,
	})
}
