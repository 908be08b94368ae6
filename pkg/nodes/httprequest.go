package nodes

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/node"
	"github.com/flowforge/flowengine/pkg/registry"
	"github.com/flowforge/flowengine/pkg/value"
)

const defaultHTTPResponseLimit = 10 << 20 // 10 MiB

// HTTPRequestNode performs a GET request against a configured URL and
// returns the response status and body. It carries none of a production
// deployment's SSRF/domain-allowlist hardening — a host wiring this
// node type into an environment with untrusted URL input needs its own
// validating wrapper around it.
type HTTPRequestNode struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// HTTPRequestFactory builds HTTPRequestNode instances sharing one
// connection-pooled client.
type HTTPRequestFactory struct {
	client *http.Client
}

// NewHTTPRequestFactory creates a factory backed by a shared, pooled client.
func NewHTTPRequestFactory() *HTTPRequestFactory {
	return &HTTPRequestFactory{client: &http.Client{}}
}

func (*HTTPRequestFactory) NodeType() string { return "http.request" }

func (*HTTPRequestFactory) Metadata() registry.Metadata {
	return registry.Metadata{
		Description: "Performs an HTTP GET request and returns its response",
		Category:    "network",
		Inputs:      []registry.PortDefinition{{Name: "in"}},
		Outputs: []registry.PortDefinition{
			{Name: "status"},
			{Name: "body"},
		},
	}
}

func (f *HTTPRequestFactory) Create(cfg map[string]value.Value) (node.Node, error) {
	urlVal, ok := cfg["url"]
	if !ok {
		return nil, flowerr.Configuration("http.request node requires a \"url\" config field")
	}
	url, ok := urlVal.AsString()
	if !ok || url == "" {
		return nil, flowerr.Configuration("url config field must be a non-empty string")
	}

	timeout := 30 * time.Second
	if timeoutVal, ok := cfg["timeout_ms"]; ok {
		if ms, ok := timeoutVal.AsNumber(); ok && ms > 0 {
			timeout = time.Duration(ms) * time.Millisecond
		}
	}

	return &HTTPRequestNode{url: url, client: f.client, timeout: timeout}, nil
}

func (n *HTTPRequestNode) NodeType() string { return "http.request" }

func (n *HTTPRequestNode) Execute(ctx context.Context, nc *node.Context) (*node.Output, error) {
	reqCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, n.url, nil)
	if err != nil {
		return nil, flowerr.ExecutionFailed("building request: " + err.Error())
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, flowerr.ExecutionFailed("http request failed: " + err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, defaultHTTPResponseLimit))
	if err != nil {
		return nil, flowerr.ExecutionFailed("reading response body: " + err.Error())
	}

	return node.NewOutput().
		WithOutput("status", value.NewNumber(float64(resp.StatusCode))).
		WithOutput("body", value.NewString(string(body))), nil
}
