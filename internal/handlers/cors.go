package handlers

import (
	"net/http"
	"strings"

	"github.com/benvon/order-cors/internal/cors"
	"github.com/benvon/order-cors/internal/validation"
	"github.com/gorilla/mux"
)

// CORSHandler exposes the effective CORS policy and a dry-run evaluator.
type CORSHandler struct {
	provider *cors.Provider
}

// NewCORSHandler creates a new CORS introspection handler
func NewCORSHandler(provider *cors.Provider) *CORSHandler {
	return &CORSHandler{provider: provider}
}

// RegisterRoutes registers the introspection routes on r
func (h *CORSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/policies", h.ListPolicies).Methods(http.MethodGet)
	r.HandleFunc("/evaluate", h.Evaluate).Methods(http.MethodGet)
}

// ListPolicies returns the frozen policy set
func (h *CORSHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.provider.Policies())
}

// EvaluateResponse is the body of a dry-run evaluation.
type EvaluateResponse struct {
	Request  cors.Request      `json:"request"`
	Decision cors.Decision     `json:"decision"`
	Headers  map[string]string `json:"headers"`
}

// Evaluate runs the provider against the request described by the query string
func (h *CORSHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := cors.Request{
		Path:          q.Get("path"),
		Origin:        q.Get("origin"),
		Method:        validation.NormalizeMethod(q.Get("method")),
		RequestMethod: validation.NormalizeMethod(q.Get("request_method")),
	}
	if req.Path == "" {
		req.Path = "/"
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if !strings.HasPrefix(req.Path, "/") {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "path must start with '/'")
		return
	}
	if !validation.IsHTTPMethod(req.Method) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "method is not a known HTTP method")
		return
	}
	for _, hdr := range validation.SplitList(q.Get("request_headers")) {
		req.RequestHeaders = append(req.RequestHeaders, strings.ToLower(hdr))
	}

	decision := h.provider.Evaluate(req)
	respondJSON(w, http.StatusOK, EvaluateResponse{
		Request:  req,
		Decision: decision,
		Headers:  DecisionHeaders(decision),
	})
}

// DecisionHeaders flattens the headers a decision would emit.
func DecisionHeaders(d cors.Decision) map[string]string {
	hdr := http.Header{}
	d.WriteHeaders(hdr)
	out := make(map[string]string, len(hdr))
	for k, v := range hdr {
		out[k] = strings.Join(v, ", ")
	}
	return out
}
