// FHIR resource client.
//
// Information Hiding:
// - HTTP request/response handling for the FHIR REST API
// - Status code mapping to not-found vs transport faults

package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emrtools/fhirloop/fault"
)

// Document is a self-describing FHIR resource as returned by the server.
// Every well-formed document carries a "resourceType" field.
type Document map[string]interface{}

// ResourceType returns the document's resourceType field, or "".
func (d Document) ResourceType() string {
	if t, ok := d["resourceType"].(string); ok {
		return t
	}
	return ""
}

// ErrNotFound indicates the server knows the resource type but holds no
// resource with the requested identifier.
var ErrNotFound = errors.New("fhir: resource not found")

// Client reads single resources from a FHIR server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the given FHIR base URL
// (e.g. https://hapi.fhir.org/baseR4).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient overrides the underlying HTTP client (used in tests).
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.client = client
	return c
}

// Fetch reads a resource by type and identifier. Unlike GetPatient it
// distinguishes failure modes: a missing resource yields ErrNotFound, a
// network or HTTP failure yields a transport fault.
func (c *Client) Fetch(ctx context.Context, resourceType, id string) (Document, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, resourceType, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/fhir+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.Transport, "", fmt.Errorf("failed to fetch %s/%s: %w", resourceType, id, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fault.Transportf("fetch %s/%s returned status %d", resourceType, id, resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fault.Wrap(fault.Transport, "", fmt.Errorf("failed to decode %s/%s: %w", resourceType, id, err))
	}
	return doc, nil
}

// GetPatient fetches a Patient resource by ID. Any failure, not-found and
// transport alike, yields nil. Callers that need to tell the two apart
// should use Fetch instead.
func (c *Client) GetPatient(ctx context.Context, id string) Document {
	doc, err := c.Fetch(ctx, "Patient", id)
	if err != nil {
		return nil
	}
	return doc
}
