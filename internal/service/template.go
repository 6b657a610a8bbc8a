package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/replyflow/inbox/internal/model"
	"github.com/replyflow/inbox/pkg/logger"
	"github.com/replyflow/inbox/pkg/metrics"
)

// TemplateService owns the in-memory template library.
type TemplateService struct {
	logger *logger.Logger
	opts   options

	templates []model.Template
	mu        sync.RWMutex
}

// NewTemplateService creates a template service holding a copy of seed.
// Variables are recomputed from each seed template's content.
func NewTemplateService(seed []model.Template, log *logger.Logger, opts ...Option) *TemplateService {
	s := &TemplateService{
		logger:    log,
		opts:      newOptions(opts),
		templates: make([]model.Template, 0, len(seed)),
	}
	for _, t := range seed {
		t = t.Clone()
		t.Variables = ExtractVariables(t.Content)
		s.templates = append(s.templates, t)
	}
	return s
}

// ListAll returns every template in collection order.
func (s *TemplateService) ListAll(ctx context.Context) ([]model.Template, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneTemplates(s.templates, nil), nil
}

// GetByID retrieves a template by ID.
func (s *TemplateService) GetByID(ctx context.Context, id int) (*model.Template, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, templateNotFound(id)
	}
	t := s.templates[i].Clone()
	return &t, nil
}

// ListByCategory returns the templates in one category.
func (s *TemplateService) ListByCategory(ctx context.Context, category model.Category) ([]model.Template, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneTemplates(s.templates, func(t *model.Template) bool {
		return t.Category == category
	}), nil
}

// Create stores a new template and derives its variables from the content.
func (s *TemplateService) Create(ctx context.Context, draft *model.TemplateDraft) (*model.Template, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	t := model.Template{
		Title:     draft.Title,
		Content:   draft.Content,
		Category:  draft.Category,
		Variables: ExtractVariables(draft.Content),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = 1
	for _, existing := range s.templates {
		if existing.ID >= t.ID {
			t.ID = existing.ID + 1
		}
	}
	s.templates = append(s.templates, t)

	metrics.TemplateOperations.WithLabelValues("create").Inc()
	s.logger.Info("template created",
		zap.Int("template_id", t.ID),
		zap.String("category", string(t.Category)),
		zap.Int("variables", len(t.Variables)),
	)

	out := t.Clone()
	return &out, nil
}

// Update merges the provided fields into a template. Changing the content
// recomputes the variables.
func (s *TemplateService) Update(ctx context.Context, id int, patch *model.TemplateUpdate) (*model.Template, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, templateNotFound(id)
	}

	t := s.templates[i].Clone()
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Category != nil {
		t.Category = *patch.Category
	}
	if patch.Content != nil {
		t.Content = *patch.Content
		t.Variables = ExtractVariables(t.Content)
	}
	s.templates[i] = t

	metrics.TemplateOperations.WithLabelValues("update").Inc()
	s.logger.Debug("template updated", zap.Int("template_id", id))

	out := t.Clone()
	return &out, nil
}

// Delete removes a template and returns it.
func (s *TemplateService) Delete(ctx context.Context, id int) (*model.Template, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, templateNotFound(id)
	}

	deleted := s.templates[i].Clone()
	s.templates = append(s.templates[:i], s.templates[i+1:]...)

	metrics.TemplateOperations.WithLabelValues("delete").Inc()
	s.logger.Info("template deleted", zap.Int("template_id", id))

	return &deleted, nil
}

// Render fills the template's placeholders from values. Placeholders with
// no value are left as-is.
func (s *TemplateService) Render(ctx context.Context, id int, values map[string]string) (*model.RenderResult, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, templateNotFound(id)
	}
	t := s.templates[i].Clone()

	metrics.TemplateOperations.WithLabelValues("render").Inc()

	return &model.RenderResult{
		Text:     RenderContent(t.Content, values),
		Template: t,
	}, nil
}

func (s *TemplateService) indexOf(id int) int {
	for i := range s.templates {
		if s.templates[i].ID == id {
			return i
		}
	}
	return -1
}

func templateNotFound(id int) error {
	return fmt.Errorf("template %d: %w", id, ErrNotFound)
}

func cloneTemplates(src []model.Template, keep func(*model.Template) bool) []model.Template {
	out := make([]model.Template, 0, len(src))
	for i := range src {
		if keep != nil && !keep(&src[i]) {
			continue
		}
		out = append(out, src[i].Clone())
	}
	return out
}
