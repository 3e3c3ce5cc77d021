// Package handler exposes postcode lookups over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"postcode_lookup/internal/postcodes/guard"
	"postcode_lookup/internal/postcodes/service"
	"postcode_lookup/internal/postcodes/transport"
	"postcode_lookup/platform/apperr"
	"postcode_lookup/platform/httpkit"
	"postcode_lookup/platform/sanitize"
	"postcode_lookup/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Engine resolves addresses. *service.Service satisfies it.
type Engine interface {
	Lookup(ctx context.Context, p service.LookupParams) (transport.Address, error)
}

// Handler handles HTTP requests for postcode lookups.
type Handler struct {
	engine Engine
	val    *validator.Validator
	group  singleflight.Group
}

// New creates a new postcode lookup handler.
func New(engine Engine, val *validator.Validator) *Handler {
	return &Handler{engine: engine, val: val}
}

// Lookup resolves a postcode and house number and replies with the lookup
// envelope.
// GET /api/v1/postcodes/lookup?postcode=...&home_number=...
func (h *Handler) Lookup(c *gin.Context) {
	var req transport.LookupQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Fail(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return
	}

	postcode := strings.TrimSpace(req.Postcode)
	homeNumber := strings.TrimSpace(req.HomeNumber)

	// Identical lookups already in flight share one upstream call. The shared
	// call must outlive whichever visitor happened to start it.
	ctx := context.WithoutCancel(c.Request.Context())
	result, err, _ := h.group.Do(postcode+"\x00"+homeNumber, func() (interface{}, error) {
		return h.engine.Lookup(ctx, service.LookupParams{
			Postcode:   postcode,
			HomeNumber: homeNumber,
			Guard:      guard.New(),
		})
	})
	if httpkit.HandleError(c, relayable(err)) {
		return
	}
	httpkit.OK(c, result)
}

// relayable cleans messages written by the lookup service before they are
// echoed to browsers. The shared error is never mutated.
func relayable(err error) error {
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) && domainErr.Kind == apperr.KindService {
		return apperr.Service(sanitize.Message(domainErr.Message))
	}
	return err
}

// RegisterRoutes mounts the lookup routes on group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup, middleware ...gin.HandlerFunc) {
	handlers := append([]gin.HandlerFunc{}, middleware...)
	group.GET("/lookup", append(handlers, h.Lookup)...)
}
