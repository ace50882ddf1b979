// Package catalog is a client for the storefront's products REST API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/heinrichb/stocksync/pkg/product"
)

// AuthHeader carries the static API token on every request.
const AuthHeader = "X-Auth-Token"

// maxResponseSize caps how much of a response body is read (10MB).
const maxResponseSize = 10 * 1024 * 1024

var (
	// ErrMissingBaseURL is returned when the client is built without an endpoint.
	ErrMissingBaseURL = errors.New("catalog: base URL is required")

	// ErrMissingToken is returned when the client is built without an auth token.
	ErrMissingToken = errors.New("catalog: auth token is required")

	// ErrMalformedResponse is returned when a successful response cannot be decoded
	// into the expected shape.
	ErrMalformedResponse = errors.New("catalog: malformed response")
)

// StatusError reports a non-2xx response from the catalog.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: %s: %d %s - %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Client talks to the catalog products endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the logger used for request-level notices.
func WithLogger(logger *zap.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

/*
NewClient creates a catalog client.

Parameters:
  - baseURL: The products endpoint, e.g. https://api.bigcommerce.com/stores/{hash}/v3/catalog/products.
  - token:   Value sent in the X-Auth-Token header.
*/
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if token == "" {
		return nil, ErrMissingToken
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("catalog: invalid base URL: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

/*
FindProductByName searches the catalog for a product with the given name.

Returns:
  - The first match, or nil if the catalog has none.
  - An error if the request fails, the status is not 2xx, or the body cannot be
    decoded. A lookup error never means "not found".
*/
func (c *Client) FindProductByName(ctx context.Context, name string) (*ProductDetail, error) {
	target := c.baseURL + "?name=" + url.QueryEscape(name) + "&limit=1"

	var resp searchResponse
	if err := c.do(ctx, "search product", http.MethodGet, target, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	if resp.Data[0].ProductID <= 0 {
		return nil, fmt.Errorf("%w: search result without product id", ErrMalformedResponse)
	}
	return &resp.Data[0], nil
}

/*
CreateProduct creates a physical, hidden product carrying g's variants.

The variant list is sent as is, even when empty; filtering by stock is the
caller's job.
*/
func (c *Client) CreateProduct(ctx context.Context, g product.Group) (*CreatedProduct, error) {
	var resp createProductResponse
	if err := c.do(ctx, "create product", http.MethodPost, c.baseURL, newCreateProductPayload(g), &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.ID <= 0 {
		return nil, fmt.Errorf("%w: create response without product id", ErrMalformedResponse)
	}

	c.logger.Info("Product created",
		zap.String("name", g.Name),
		zap.Int("productId", resp.Data.ID),
		zap.String("sku", resp.Data.SKU),
	)
	return resp.Data, nil
}

// ListVariants returns every variant of the given product.
func (c *Client) ListVariants(ctx context.Context, productID int) ([]RemoteVariant, error) {
	var resp variantListResponse
	if err := c.do(ctx, "list variants", http.MethodGet, c.variantsURL(productID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: variant list without data", ErrMalformedResponse)
	}
	return *resp.Data, nil
}

// UpdateVariantInventory overwrites one variant's inventory level.
func (c *Client) UpdateVariantInventory(ctx context.Context, productID, variantID, level int) error {
	target := c.variantsURL(productID) + "/" + strconv.Itoa(variantID)
	return c.do(ctx, "update variant", http.MethodPut, target, inventoryUpdatePayload{InventoryLevel: level}, nil)
}

// CreateVariant adds a single size variant to an existing product.
func (c *Client) CreateVariant(ctx context.Context, productID int, v product.Variant) error {
	payload := newVariantPayload(v)
	payload.ProductID = productID
	payload.MPN = ""

	if err := c.do(ctx, "create variant", http.MethodPost, c.variantsURL(productID), payload, nil); err != nil {
		return err
	}
	c.logger.Info("Variant created",
		zap.Int("productId", productID),
		zap.String("sku", v.SKU),
		zap.String("size", v.Size()),
	)
	return nil
}

func (c *Client) variantsURL(productID int) string {
	return fmt.Sprintf("%s/%d/variants", c.baseURL, productID)
}

// do sends a JSON request and decodes a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, target string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("catalog: %s: failed to marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("catalog: %s: failed to build request: %w", op, err)
	}
	req.Header.Set(AuthHeader, c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("Catalog request", zap.String("op", op), zap.String("method", method), zap.String("url", target))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("catalog: %s: failed to read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, op, err)
	}
	return nil
}
