package cors

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	HeaderOrigin           = "Origin"
	HeaderVary             = "Vary"
	HeaderRequestMethod    = "Access-Control-Request-Method"
	HeaderRequestHeaders   = "Access-Control-Request-Headers"
	HeaderAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderExposeHeaders    = "Access-Control-Expose-Headers"
	HeaderMaxAge           = "Access-Control-Max-Age"
)

// Decision is the outcome of evaluating a request.
type Decision struct {
	Allowed          bool     `json:"allowed"`
	Preflight        bool     `json:"preflight"`
	Reason           Reason   `json:"reason"`
	EchoedOrigin     string   `json:"echoed_origin,omitempty"`
	AllowedMethods   []string `json:"allowed_methods,omitempty"`
	AllowedHeaders   []string `json:"allowed_headers,omitempty"`
	ExposedHeaders   []string `json:"exposed_headers,omitempty"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age,omitempty"`
}

// HasHeaders reports whether the decision produces any CORS response headers.
func (d Decision) HasHeaders() bool {
	return d.Allowed && d.EchoedOrigin != ""
}

// WriteHeaders adds the CORS response headers for d to h.
// Nothing is written unless the decision allows a cross-origin request.
func (d Decision) WriteHeaders(h http.Header) {
	if d.Reason != ReasonNoPolicy && d.Reason != ReasonSameOrigin {
		h.Add(HeaderVary, HeaderOrigin)
		if d.Preflight {
			h.Add(HeaderVary, HeaderRequestMethod)
			h.Add(HeaderVary, HeaderRequestHeaders)
		}
	}
	if !d.HasHeaders() {
		return
	}

	h.Set(HeaderAllowOrigin, d.EchoedOrigin)
	h.Set(HeaderAllowMethods, strings.Join(d.AllowedMethods, ", "))
	if d.AllowCredentials {
		h.Set(HeaderAllowCredentials, "true")
	}
	if d.Preflight {
		if len(d.AllowedHeaders) > 0 {
			h.Set(HeaderAllowHeaders, strings.Join(d.AllowedHeaders, ", "))
		}
		if d.MaxAge > 0 {
			h.Set(HeaderMaxAge, strconv.Itoa(d.MaxAge))
		}
		return
	}
	if len(d.ExposedHeaders) > 0 {
		h.Set(HeaderExposeHeaders, strings.Join(d.ExposedHeaders, ", "))
	}
}
