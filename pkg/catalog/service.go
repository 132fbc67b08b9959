package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Repository is the persistence contract the catalog needs.
type Repository interface {
	ListFoods(ctx context.Context) ([]FoodItem, error)
	ReplaceFoods(ctx context.Context, items []FoodItem) ([]FoodItem, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithCache puts a list cache in front of the repository.
func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithImageBaseURL rewrites relative image references against baseURL.
func WithImageBaseURL(baseURL string) Option {
	return func(s *Service) {
		s.images = ImageResolver{BaseURL: baseURL}
	}
}

// WithLogger sets the logger used for cache degradation warnings.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service serves the read-only menu.
type Service struct {
	repo   Repository
	cache  Cache
	images ImageResolver
	logger *logrus.Logger
}

// NewService builds a catalog over repo.
func NewService(repo Repository, opts ...Option) *Service {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	svc := &Service{repo: repo, logger: quiet}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// List returns the menu narrowed by filter. Image references come back as absolute URLs when a
// base URL is configured.
func (s *Service) List(ctx context.Context, filter Filter) ([]FoodItem, error) {
	category, err := ParseCategory(filter.Category)
	if err != nil {
		return nil, err
	}
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]FoodItem, 0, len(items))
	for _, item := range items {
		if category != CategoryAll && item.Category != category {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		item.Image = s.images.Resolve(item.Image)
		out = append(out, item)
	}
	return out, nil
}

// Seed replaces the whole catalog with items after validating every entry.
func (s *Service) Seed(ctx context.Context, items []FoodItem) ([]FoodItem, error) {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}
	stored, err := s.repo.ReplaceFoods(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("replace catalog: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.WithError(err).Warn("catalog cache invalidation failed")
		}
	}
	s.logger.WithField("items", len(stored)).Info("catalog seeded")
	return stored, nil
}

func (s *Service) load(ctx context.Context) ([]FoodItem, error) {
	if s.cache != nil {
		if items, ok := s.cache.Get(ctx); ok {
			return items, nil
		}
	}
	items, err := s.repo.ListFoods(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, items); err != nil {
			s.logger.WithError(err).Warn("catalog cache write failed")
		}
	}
	return items, nil
}
