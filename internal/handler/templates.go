package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/replyflow/inbox/internal/middleware"
	"github.com/replyflow/inbox/internal/model"
	"github.com/replyflow/inbox/internal/service"
	"github.com/replyflow/inbox/pkg/logger"
)

// TemplateHandler handles template library endpoints.
type TemplateHandler struct {
	service *service.TemplateService
	events  publisher
	logger  *logger.Logger
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(svc *service.TemplateService, events EventPublisher, log *logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		service: svc,
		events:  publisher{events: events, logger: log},
		logger:  log,
	}
}

// List handles GET /api/v1/templates
// Supports ?category=<name> for an exact category match.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		templates []model.Template
		err       error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		templates, err = h.service.ListByCategory(ctx, model.Category(category))
	} else {
		templates, err = h.service.ListAll(ctx)
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err, "list templates")
		return
	}

	writeJSON(w, http.StatusOK, &model.ListTemplatesResponse{
		Templates: templates,
		Total:     len(templates),
	})
}

// Create handles POST /api/v1/templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft model.TemplateDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTitle(draft.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageContent(draft.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tmpl, err := h.service.Create(r.Context(), &draft)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "create template")
		return
	}

	h.events.publish(r, model.EntityTemplate, tmpl.ID, model.EventTemplateCreated, map[string]any{
		"category": tmpl.Category,
	})

	writeJSON(w, http.StatusCreated, tmpl)
}

// Get handles GET /api/v1/templates/:id
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tmpl, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "get template")
		return
	}

	writeJSON(w, http.StatusOK, tmpl)
}

// Update handles PUT /api/v1/templates/:id
// Only the fields present in the body are changed.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch model.TemplateUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Title != nil {
		if err := middleware.ValidateTitle(*patch.Title); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	tmpl, err := h.service.Update(r.Context(), id, &patch)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "update template")
		return
	}

	h.events.publish(r, model.EntityTemplate, id, model.EventTemplateUpdated, nil)

	writeJSON(w, http.StatusOK, tmpl)
}

// Delete handles DELETE /api/v1/templates/:id
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err, "delete template")
		return
	}

	h.events.publish(r, model.EntityTemplate, id, model.EventTemplateDeleted, nil)

	w.WriteHeader(http.StatusNoContent)
}

// Render handles POST /api/v1/templates/:id/render
func (h *TemplateHandler) Render(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.RenderRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	result, err := h.service.Render(r.Context(), id, req.Variables)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "render template")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Variables handles GET /api/v1/templates/:id/variables
// Supports ?unique=true to drop repeated placeholder names.
func (h *TemplateHandler) Variables(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	unique, _ := strconv.ParseBool(r.URL.Query().Get("unique"))

	tmpl, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "get template variables")
		return
	}

	vars := tmpl.Variables
	if unique {
		vars = service.UniqueVariables(vars)
	}
	if vars == nil {
		vars = []string{}
	}

	writeJSON(w, http.StatusOK, &model.VariablesResponse{
		TemplateID: tmpl.ID,
		Variables:  vars,
		Unique:     unique,
	})
}
