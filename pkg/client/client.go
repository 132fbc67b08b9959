// Package client talks to the food delivery API on behalf of one device.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/cart"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/order"
)

// DefaultTimeout applies when no *http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Detail != "" && e.Detail != msg {
		return fmt.Sprintf("%s (%s, status %d)", msg, e.Detail, e.Status)
	}
	return fmt.Sprintf("%s (status %d)", msg, e.Status)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSession attaches the token of session to every request.
func WithSession(session *Session) Option {
	return func(c *Client) {
		c.session = session
	}
}

// WithLogger enables debug logging of requests.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is safe for sequential use by one device.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	logger  *logrus.Logger
}

// New builds a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  quiet,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSession swaps the session, nil signs out.
func (c *Client) SetSession(session *Session) {
	c.session = session
}

// Session returns the current session or nil.
func (c *Client) Session() *Session {
	return c.session
}

// BaseURL returns the API root, used to resolve relative image paths.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SignupRequest is the signup form.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type sessionEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Session
}

// Signup creates an account and returns its session. The client does not adopt it; callers
// decide whether to SetSession and save it.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	var env sessionEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", req, &env); err != nil {
		return nil, err
	}
	session := env.Session
	return &session, nil
}

// Login authenticates and returns a fresh session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var env sessionEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &env); err != nil {
		return nil, err
	}
	session := env.Session
	return &session, nil
}

// Foods lists the menu. An empty category means all.
func (c *Client) Foods(ctx context.Context, category, query string) ([]catalog.FoodItem, error) {
	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	if query != "" {
		params.Set("q", query)
	}
	path := "/api/foods"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var items []catalog.FoodItem
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CheckoutForm is the delivery part of the checkout screen.
type CheckoutForm struct {
	Name          string
	Phone         string
	Address       string
	City          string
	PaymentMethod order.PaymentMethod
}

type orderPayload struct {
	Items         []order.Line        `json:"items"`
	CustomerName  string              `json:"customerName"`
	Phone         string              `json:"phone"`
	Address       string              `json:"address"`
	TotalAmount   int64               `json:"totalAmount"`
	PaymentMethod order.PaymentMethod `json:"paymentMethod"`
}

type orderEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Order   order.Order `json:"order"`
}

// Checkout places an order for the cart lines. The cart is left untouched; clear it once the
// returned order has been shown.
func (c *Client) Checkout(ctx context.Context, items *cart.Cart, form CheckoutForm) (order.Order, error) {
	if items == nil || items.Empty() {
		return order.Order{}, fmt.Errorf("checkout: cart is empty")
	}
	lines := items.Lines()
	payload := orderPayload{
		Items:         make([]order.Line, 0, len(lines)),
		CustomerName:  strings.TrimSpace(form.Name),
		Phone:         strings.TrimSpace(form.Phone),
		Address:       joinAddress(form.Address, form.City),
		TotalAmount:   items.TotalPrice() + order.DeliveryFee,
		PaymentMethod: form.PaymentMethod,
	}
	for _, l := range lines {
		payload.Items = append(payload.Items, order.Line{
			ID:       l.ID,
			Name:     l.Name,
			Price:    l.Price,
			Quantity: l.Quantity,
			Image:    l.Image,
			Category: l.Category,
		})
	}
	var env orderEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/orders", payload, &env); err != nil {
		return order.Order{}, err
	}
	return env.Order, nil
}

func joinAddress(address, city string) string {
	address, city = strings.TrimSpace(address), strings.TrimSpace(city)
	if city == "" {
		return address
	}
	if address == "" {
		return city
	}
	return address + ", " + city
}

// Orders returns the order history, newest first.
func (c *Client) Orders(ctx context.Context) ([]order.Order, error) {
	var env struct {
		Success bool          `json:"success"`
		Orders  []order.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &env); err != nil {
		return nil, err
	}
	return env.Orders, nil
}

// Order fetches one order.
func (c *Client) Order(ctx context.Context, id string) (order.Order, error) {
	var env orderEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(id), nil, &env); err != nil {
		return order.Order{}, err
	}
	return env.Order, nil
}

// UpdateStatus asks the server to move an order to status.
func (c *Client) UpdateStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	var env orderEnvelope
	body := map[string]order.Status{"status": status}
	if err := c.do(ctx, http.MethodPatch, "/api/orders/"+url.PathEscape(id)+"/status", body, &env); err != nil {
		return order.Order{}, err
	}
	return env.Order, nil
}

// Health calls /api/health.
func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("api call")

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(data, &env) == nil {
			apiErr.Message, apiErr.Detail = env.Message, env.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
