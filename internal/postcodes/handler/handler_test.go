package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postcode_lookup/internal/postcodes/service"
	"postcode_lookup/internal/postcodes/transport"
	"postcode_lookup/platform/apperr"
	"postcode_lookup/platform/validator"
)

type fakeEngine struct {
	mu     sync.Mutex
	params []service.LookupParams
	addr   transport.Address
	err    error
}

func (f *fakeEngine) Lookup(_ context.Context, p service.LookupParams) (transport.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, p)
	return f.addr, f.err
}

func setupRouter(engine Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(engine, validator.New()).RegisterRoutes(r.Group("/api/v1/postcodes"))
	return r
}

func get(t *testing.T, r *gin.Engine, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestLookupSuccess(t *testing.T) {
	engine := &fakeEngine{addr: transport.Address{"postcode": "1234AB", "home_number": json.Number("10"), "city": "Utrecht"}}
	r := setupRouter(engine)

	w, body := get(t, r, "/api/v1/postcodes/lookup?postcode=+1234AB&home_number=10")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Utrecht", data["city"])
	assert.Equal(t, float64(10), data["home_number"])

	require.Len(t, engine.params, 1)
	assert.Equal(t, "1234AB", engine.params[0].Postcode)
	assert.NotNil(t, engine.params[0].Guard, "each request gets its own guard")
}

func TestLookupValidation(t *testing.T) {
	engine := &fakeEngine{}
	r := setupRouter(engine)

	w, body := get(t, r, "/api/v1/postcodes/lookup?postcode=1234AB")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, msgValidationFailed, body["error"])
	details := body["details"].(map[string]interface{})
	assert.Equal(t, "required", details["home_number"])
	assert.Empty(t, engine.params)
}

func TestLookupErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"missing input", apperr.MissingInput("no home number provided"), http.StatusBadRequest, "no home number provided"},
		{"service error", apperr.Service("Address not found"), http.StatusOK, "Address not found"},
		{"service error markup", apperr.Service("<b>Unknown</b>\naddress"), http.StatusOK, "Unknown address"},
		{"malformed", apperr.MalformedResponse(`missing "data" field`), http.StatusBadGateway, `missing "data" field`},
		{"upstream", apperr.Upstream("lookup service unreachable", nil), http.StatusBadGateway, "lookup service unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(&fakeEngine{err: tt.err})

			w, body := get(t, r, "/api/v1/postcodes/lookup?postcode=1234AB&home_number=%20")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestRegisterRoutesLeavesCallerSliceAlone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	noop := func(c *gin.Context) { c.Next() }
	sentinel := func(c *gin.Context) { c.String(http.StatusTeapot, "sentinel") }

	middleware := make([]gin.HandlerFunc, 1, 2)
	middleware[0] = noop
	chain := append(middleware, sentinel)

	New(&fakeEngine{}, validator.New()).RegisterRoutes(r.Group("/api/v1/postcodes"), middleware...)
	r.GET("/sentinel", chain...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sentinel", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "sentinel", w.Body.String())
}
