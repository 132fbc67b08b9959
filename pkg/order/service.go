package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/metrics"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/storage"
)

// Repository persists orders. Implementations report storage.ErrDuplicate for an order number
// clash, storage.ErrNotFound for a missing id and storage.ErrConflict when UpdateOrderStatus finds
// a status other than from.
type Repository interface {
	InsertOrder(ctx context.Context, o Order) (Order, error)
	FindOrder(ctx context.Context, id string) (Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to Status) (Order, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service turns carts into orders and walks them through the status lifecycle.
// It keeps no state between calls.
type Service struct {
	repo   Repository
	clock  func() time.Time
	logger *logrus.Logger
}

// NewService wires the repository.
func NewService(repo Repository, opts ...Option) *Service {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	svc := &Service{repo: repo, clock: time.Now, logger: quiet}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// PlaceOrder validates the request, recomputes the total and stores a pending order. Validation
// failures never reach the repository.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (Order, error) {
	o, err := s.build(req)
	if err != nil {
		return Order{}, err
	}

	o.CreatedAt = s.clock().UTC().Truncate(time.Millisecond)
	o.Number = FormatNumber(o.CreatedAt)
	stored, err := s.repo.InsertOrder(ctx, o)
	if errors.Is(err, storage.ErrDuplicate) {
		taken := o.Number
		o.Number = nextNumber(taken, s.clock())
		s.logger.WithFields(logrus.Fields{
			"order_number": taken,
			"retry_number": o.Number,
		}).Warn("order number collision, retrying")
		stored, err = s.repo.InsertOrder(ctx, o)
		if errors.Is(err, storage.ErrDuplicate) {
			return Order{}, fmt.Errorf("%w: %s and %s are taken", ErrNumberConflict, taken, o.Number)
		}
	}
	if err != nil {
		return Order{}, fmt.Errorf("store order: %w", err)
	}

	metrics.RecordOrderPlaced(string(stored.PaymentMethod))
	s.logger.WithFields(logrus.Fields{
		"order_id":     stored.ID,
		"order_number": stored.Number,
		"items":        len(stored.Items),
		"total":        stored.TotalAmount,
	}).Info("order placed")
	return stored, nil
}

// Get fetches one order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	o, err := s.repo.FindOrder(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Order{}, fmt.Errorf("find order %s: %w", id, err)
	}
	return o, nil
}

// List returns every order, most recent first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

// UpdateStatus moves an order to next if the transition table allows it. The store write is
// conditional on the status that was checked; a lost race is re-evaluated once.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (Order, error) {
	if !next.Valid() {
		return Order{}, newValidationError(fmt.Sprintf("invalid status %q", next))
	}
	for attempt := 0; attempt < 2; attempt++ {
		current, err := s.Get(ctx, id)
		if err != nil {
			return Order{}, err
		}
		if !current.Status.CanTransitionTo(next) {
			return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
		}

		updated, err := s.repo.UpdateOrderStatus(ctx, id, current.Status, next)
		switch {
		case err == nil:
			metrics.RecordStatusTransition(string(current.Status), string(next))
			s.logger.WithFields(logrus.Fields{
				"order_id":     id,
				"order_number": updated.Number,
				"from":         current.Status,
				"to":           next,
			}).Info("order status updated")
			return updated, nil
		case errors.Is(err, storage.ErrConflict):
			s.logger.WithField("order_id", id).Warn("order status changed concurrently, re-checking")
			continue
		case errors.Is(err, storage.ErrNotFound):
			return Order{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		default:
			return Order{}, fmt.Errorf("update order %s: %w", id, err)
		}
	}
	return Order{}, fmt.Errorf("%w: order %s keeps changing concurrently", ErrInvalidTransition, id)
}

// build applies the checkout rules and returns the unsaved order.
func (s *Service) build(req Request) (Order, error) {
	name := strings.TrimSpace(req.Customer.Name)
	phone := strings.TrimSpace(req.Customer.Phone)
	address := strings.TrimSpace(req.Customer.Address)
	if name == "" {
		return Order{}, newValidationError("name is required")
	}
	if phone == "" {
		return Order{}, newValidationError("phone is required")
	}
	if address == "" {
		return Order{}, newValidationError("address is required")
	}
	if len(req.Items) == 0 {
		return Order{}, newValidationError("at least one item is required")
	}

	payment := req.PaymentMethod
	switch payment {
	case "":
		payment = PaymentCash
	case PaymentCash, PaymentCard:
	default:
		return Order{}, newValidationError(fmt.Sprintf("unsupported payment method %q", payment))
	}

	lines := make([]Line, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))
	var subtotal int64
	for _, item := range req.Items {
		if strings.TrimSpace(item.ID) == "" {
			return Order{}, newValidationError("item id is required")
		}
		if seen[item.ID] {
			return Order{}, newValidationError(fmt.Sprintf("item %s appears more than once", item.ID))
		}
		seen[item.ID] = true
		if strings.TrimSpace(item.Name) == "" {
			return Order{}, newValidationError("item name is required")
		}
		if item.Price <= 0 {
			return Order{}, newValidationError(fmt.Sprintf("price for %s must be positive", item.Name))
		}
		if item.Quantity < 1 {
			return Order{}, newValidationError(fmt.Sprintf("quantity for %s must be at least 1", item.Name))
		}
		if item.Price > maxSubtotal/int64(item.Quantity) {
			return Order{}, newValidationError(fmt.Sprintf("amount for %s is too large", item.Name))
		}
		amount := item.Price * int64(item.Quantity)
		if subtotal > maxSubtotal-amount {
			return Order{}, newValidationError("order total is too large")
		}
		subtotal += amount
		lines = append(lines, item)
	}

	o := Order{
		Items:         lines,
		CustomerName:  name,
		Phone:         phone,
		Address:       address,
		PaymentMethod: payment,
		Status:        StatusPending,
		UserID:        req.UserID,
	}
	o.TotalAmount = o.Subtotal() + DeliveryFee
	if req.ClientTotal != 0 && req.ClientTotal != o.TotalAmount {
		s.logger.WithFields(logrus.Fields{
			"client_total": req.ClientTotal,
			"total":        o.TotalAmount,
		}).Warn("client total disagrees with recomputed total, using recomputed value")
	}
	return o, nil
}
