// Package postcodes provides the postcode lookup bounded context.
// This file defines the module that wires lookups into the HTTP gateway.
package postcodes

import (
	"github.com/gin-gonic/gin"

	apphttp "postcode_lookup/internal/http"
	"postcode_lookup/internal/postcodes/handler"
	"postcode_lookup/platform/config"
	"postcode_lookup/platform/logger"
	"postcode_lookup/platform/validator"
)

// Module is the postcode lookup bounded context module.
type Module struct {
	postcodes *Postcodes
	handler   *handler.Handler
}

// NewModule creates and initializes the postcode lookup module.
func NewModule(cfg config.LookupConfig, val *validator.Validator, log *logger.Logger) (*Module, error) {
	p, err := New(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Module{
		postcodes: p,
		handler:   handler.New(p.Service(), val),
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "postcodes"
}

// Postcodes returns the lookup entry point for in-process use.
func (m *Module) Postcodes() *Postcodes {
	return m.postcodes
}

// RegisterRoutes mounts the lookup gateway routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	var limit []gin.HandlerFunc
	if ctx.LookupRateLimiter != nil {
		limit = append(limit, ctx.LookupRateLimiter.RateLimit())
	}
	m.handler.RegisterRoutes(ctx.V1.Group("/postcodes"), limit...)
}

var _ apphttp.Module = (*Module)(nil)
