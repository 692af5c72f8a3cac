package service

import (
	"context"

	"taskboard/internal/metrics"
	"taskboard/internal/model"
	"taskboard/internal/session"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	metrics *metrics.Metrics
}

func NewCategoryService(m *metrics.Metrics) *CategoryService {
	return &CategoryService{metrics: m}
}

func (s *CategoryService) Add(ctx context.Context, sess *session.Session, name string) (model.Category, bool, error) {
	cat, ok, err := sess.Categories.Add(ctx, name)
	if err != nil {
		s.metrics.Op("category_add", "error")
		return cat, false, err
	}
	s.metrics.OpBool("category_add", ok)
	return cat, ok, nil
}

func (s *CategoryService) List(ctx context.Context, sess *session.Session) ([]model.Category, error) {
	return sess.Categories.List(ctx)
}

// At returns the category at a 1-based position of List.
func (s *CategoryService) At(ctx context.Context, sess *session.Session, n int) (model.Category, bool, error) {
	categories, err := sess.Categories.List(ctx)
	if err != nil {
		return model.Category{}, false, err
	}
	if n < 1 || n > len(categories) {
		return model.Category{}, false, nil
	}
	return categories[n-1], true, nil
}

func (s *CategoryService) Names(ctx context.Context, sess *session.Session) (map[string]string, error) {
	return sess.Categories.Names(ctx)
}
