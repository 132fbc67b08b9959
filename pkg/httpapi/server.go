// Package httpapi exposes the catalog, orders and auth over JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/auth"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/metrics"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/order"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/version"
)

const (
	readTimeout  = 3 * time.Second
	writeTimeout = 5 * time.Second
	// maxBodyBytes bounds request payloads.
	maxBodyBytes = 1 << 20
)

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config tunes the surface around the handlers.
type Config struct {
	// ImagesDir is served under /images/. Empty disables the route.
	ImagesDir     string
	CORSOrigins   []string
	AuthRateLimit float64
	AuthRateBurst int
	// TrustedProxies may set X-Forwarded-For. Other peers are keyed by their own address.
	TrustedProxies []netip.Prefix
	DisableMetrics bool
}

// Server wires HTTP endpoints to the catalog, order and auth services.
type Server struct {
	catalog *catalog.Service
	orders  *order.Service
	auth    *auth.Service
	health  Pinger
	cfg     Config
	logger  *logrus.Logger
}

// New builds a Server. health may be nil.
func New(catalogService *catalog.Service, orderService *order.Service, authService *auth.Service, health Pinger, cfg Config, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		catalog: catalogService,
		orders:  orderService,
		auth:    authService,
		health:  health,
		cfg:     cfg,
		logger:  logger,
	}
}

// Handler returns the router wrapped in recovery, access logging and CORS.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found", r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method+" "+r.URL.Path)
	})
	r.Use(metricsMiddleware)

	r.HandleFunc("/", s.root).Methods(http.MethodGet)
	r.HandleFunc("/api/health", s.healthCheck).Methods(http.MethodGet)
	if !s.cfg.DisableMetrics {
		r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}
	if s.cfg.ImagesDir != "" {
		r.PathPrefix("/images/").Handler(http.StripPrefix("/images/", http.FileServer(http.Dir(s.cfg.ImagesDir)))).Methods(http.MethodGet, http.MethodHead)
	}

	r.HandleFunc("/api/foods", s.listFoods).Methods(http.MethodGet)

	authRoutes := r.PathPrefix("/api/auth").Subrouter()
	if s.cfg.AuthRateLimit > 0 {
		authRoutes.Use(newRateLimiter(s.cfg.AuthRateLimit, s.cfg.AuthRateBurst, s.clients(), s.logger).handler)
	}
	authRoutes.HandleFunc("/signup", s.signup).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", s.login).Methods(http.MethodPost)

	orderRoutes := r.PathPrefix("/api/orders").Subrouter()
	var verifier TokenVerifier
	if s.auth != nil {
		verifier = s.auth.Tokens()
	}
	orderRoutes.Use(bearerAuth(verifier, s.logger))
	orderRoutes.HandleFunc("", s.createOrder).Methods(http.MethodPost)
	orderRoutes.HandleFunc("", s.listOrders).Methods(http.MethodGet)
	orderRoutes.HandleFunc("/{id}", s.getOrder).Methods(http.MethodGet)
	orderRoutes.HandleFunc("/{id}/status", s.updateStatus).Methods(http.MethodPatch)

	var h http.Handler = r
	h = newCORS(s.cfg.CORSOrigins).handler(h)
	h = recoverer(s.logger)(h)
	h = requestLogger(s.logger, s.clients())(h)
	return h
}

func (s *Server) clients() clientResolver {
	return clientResolver{trusted: s.cfg.TrustedProxies}
}

func (s *Server) log(r *http.Request) *logrus.Entry {
	return s.logger.WithField("request_id", RequestID(r.Context()))
}

// decode reads a bounded JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Food Delivery API"})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok", "message": "Server is running", "version": version.Version()}
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.log(r).WithError(err).Warn("health check: database unreachable")
			body["database"] = "unavailable"
		} else {
			body["database"] = "connected"
		}
	}
	respondJSON(w, http.StatusOK, body)
}

// listFoods serves the menu. category and q narrow the result.
func (s *Server) listFoods(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	filter := catalog.Filter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
	}
	items, err := s.catalog.List(ctx, filter)
	if err != nil {
		status, message, detail := statusFor(err, "Failed to fetch food items")
		s.log(r).WithError(err).WithField("category", filter.Category).Warn("food listing failed")
		respondError(w, status, message, detail)
		return
	}
	s.log(r).WithField("items", len(items)).Debug("food listing served")
	respondJSON(w, http.StatusOK, items)
}

type signupPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type sessionResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    auth.PublicUser `json:"user"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var payload signupPayload
	if err := decode(w, r, &payload); err != nil {
		s.log(r).WithError(err).Warn("signup failed: unable to decode payload")
		respondError(w, http.StatusBadRequest, "invalid JSON", "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	session, err := s.auth.Signup(ctx, auth.SignupRequest{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Phone:    payload.Phone,
	})
	if err != nil {
		status, message, detail := statusFor(err, "Failed to create user")
		s.log(r).WithError(err).WithField("status", status).Warn("signup rejected")
		respondError(w, status, message, detail)
		return
	}
	s.log(r).WithField("user_id", session.User.ID).Info("signup succeeded")
	respondJSON(w, http.StatusCreated, sessionResponse{
		Success: true,
		Message: "User created successfully",
		Token:   session.Token,
		User:    session.User,
	})
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := decode(w, r, &payload); err != nil {
		s.log(r).WithError(err).Warn("login failed: unable to decode payload")
		respondError(w, http.StatusBadRequest, "invalid JSON", "")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	session, err := s.auth.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		status, message, detail := statusFor(err, "Failed to login")
		s.log(r).WithError(err).WithField("status", status).Warn("login rejected")
		respondError(w, status, message, detail)
		return
	}
	s.log(r).WithField("user_id", session.User.ID).Info("login succeeded")
	respondJSON(w, http.StatusOK, sessionResponse{
		Success: true,
		Message: "Login successful",
		Token:   session.Token,
		User:    session.User,
	})
}

type orderPayload struct {
	Items         []order.Line `json:"items"`
	CustomerName  string       `json:"customerName"`
	Phone         string       `json:"phone"`
	Address       string       `json:"address"`
	TotalAmount   int64        `json:"totalAmount"`
	PaymentMethod string       `json:"paymentMethod"`
}

type orderResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Order   order.Order `json:"order"`
}

// createOrder decodes the checkout payload and hands it to the order service.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := decode(w, r, &payload); err != nil {
		s.log(r).WithError(err).Warn("order creation failed: unable to decode payload")
		respondError(w, http.StatusBadRequest, "Failed to place order", "invalid JSON")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	stored, err := s.orders.PlaceOrder(ctx, order.Request{
		Items: payload.Items,
		Customer: order.Customer{
			Name:    payload.CustomerName,
			Phone:   payload.Phone,
			Address: payload.Address,
		},
		PaymentMethod: order.PaymentMethod(strings.ToLower(strings.TrimSpace(payload.PaymentMethod))),
		ClientTotal:   payload.TotalAmount,
		UserID:        UserID(r.Context()),
	})
	if err != nil {
		status, message, detail := statusFor(err, "Failed to place order")
		if status == http.StatusBadRequest {
			message, detail = "Failed to place order", err.Error()
		}
		s.log(r).WithError(err).WithFields(logrus.Fields{
			"customer": payload.CustomerName,
			"items":    len(payload.Items),
			"status":   status,
		}).Warn("order creation rejected")
		respondError(w, status, message, detail)
		return
	}
	s.log(r).WithFields(logrus.Fields{
		"order_number": stored.Number,
		"total":        stored.TotalAmount,
	}).Info("order stored")
	respondJSON(w, http.StatusCreated, orderResponse{
		Success: true,
		Message: "Order placed successfully",
		Order:   stored,
	})
}

type ordersResponse struct {
	Success bool          `json:"success"`
	Orders  []order.Order `json:"orders"`
}

// listOrders returns all orders, newest first.
func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	orders, err := s.orders.List(ctx)
	if err != nil {
		status, message, detail := statusFor(err, "Failed to fetch orders")
		s.log(r).WithError(err).Warn("order listing failed")
		respondError(w, status, message, detail)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	s.log(r).WithField("orders", len(orders)).Debug("order listing served")
	respondJSON(w, http.StatusOK, ordersResponse{Success: true, Orders: orders})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	o, err := s.orders.Get(ctx, id)
	if err != nil {
		status, message, detail := statusFor(err, "Failed to fetch order")
		s.log(r).WithError(err).WithField("order_id", id).Warn("order lookup failed")
		respondError(w, status, message, detail)
		return
	}
	respondJSON(w, http.StatusOK, orderResponse{Success: true, Order: o})
}

type statusPayload struct {
	Status string `json:"status"`
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var payload statusPayload
	if err := decode(w, r, &payload); err != nil && err != io.EOF {
		s.log(r).WithError(err).WithField("order_id", id).Warn("status update failed: unable to decode payload")
		respondError(w, http.StatusBadRequest, "Failed to update order status", "invalid JSON")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	updated, err := s.orders.UpdateStatus(ctx, id, order.Status(strings.TrimSpace(payload.Status)))
	if err != nil {
		status, message, detail := statusFor(err, "Failed to update order status")
		if status == http.StatusBadRequest {
			message, detail = "Failed to update order status", err.Error()
		}
		s.log(r).WithError(err).WithFields(logrus.Fields{
			"order_id": id,
			"status":   payload.Status,
		}).Warn("status update rejected")
		respondError(w, status, message, detail)
		return
	}
	s.log(r).WithFields(logrus.Fields{
		"order_number": updated.Number,
		"status":       updated.Status,
	}).Info("order status updated")
	respondJSON(w, http.StatusOK, orderResponse{
		Success: true,
		Message: "Order status updated",
		Order:   updated,
	})
}
