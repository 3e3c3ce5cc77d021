package client

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"postcode_lookup/internal/postcodes/transport"
)

// ResolveURL turns a lookup URL into an absolute one. Anything not starting
// with "http" is taken relative to origin, with one leading slash dropped.
func ResolveURL(raw, origin string) (*url.URL, error) {
	if !strings.HasPrefix(raw, "http") {
		if origin == "" {
			return nil, fmt.Errorf("relative lookup url %q requires an origin", raw)
		}
		raw = strings.TrimRight(origin, "/") + "/" + strings.TrimPrefix(raw, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse lookup url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("lookup url %q has no host", raw)
	}
	return u, nil
}

// DefaultRequestBuilder returns the builder used when callers do not bring
// their own: a GET on baseURL with postcode and home_number appended to any
// query the base URL already carries.
func DefaultRequestBuilder(baseURL, origin string) (transport.RequestBuilder, error) {
	base, err := ResolveURL(baseURL, origin)
	if err != nil {
		return nil, err
	}

	return func(postcode, homeNumber string) transport.LookupRequest {
		u := *base
		params := "postcode=" + url.QueryEscape(postcode) + "&home_number=" + url.QueryEscape(homeNumber)
		if u.RawQuery == "" {
			u.RawQuery = params
		} else {
			u.RawQuery += "&" + params
		}

		header := http.Header{}
		header.Set("Content-Type", "application/json")

		return transport.LookupRequest{
			URL:    u.String(),
			Method: http.MethodGet,
			Header: header,
		}
	}, nil
}
