package model

// Category groups templates in the template library. The set is open-ended;
// these are the categories the dashboard ships with.
type Category string

const (
	CategoryOrders    Category = "orders"
	CategoryProducts  Category = "products"
	CategoryTechnical Category = "technical"
	CategoryBilling   Category = "billing"
	CategoryGeneral   Category = "general"
)

// Categories returns the built-in categories.
func Categories() []Category {
	return []Category{CategoryOrders, CategoryProducts, CategoryTechnical, CategoryBilling, CategoryGeneral}
}

// Template is a reusable canned response with {{name}} placeholders.
type Template struct {
	ID        int      `json:"id" yaml:"id"`
	Title     string   `json:"title" yaml:"title"`
	Content   string   `json:"content" yaml:"content"`
	Category  Category `json:"category" yaml:"category"`
	Variables []string `json:"variables" yaml:"variables,omitempty"`
}

// Clone returns a deep copy of the template.
func (t Template) Clone() Template {
	out := t
	if t.Variables != nil {
		out.Variables = make([]string, len(t.Variables))
		copy(out.Variables, t.Variables)
	}
	return out
}

// TemplateDraft is the request to create a template.
type TemplateDraft struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category Category `json:"category"`
}

// TemplateUpdate carries the fields to merge into a template. Nil fields are
// left unchanged.
type TemplateUpdate struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Category *Category `json:"category,omitempty"`
}

// RenderRequest is the request to fill a template's placeholders.
type RenderRequest struct {
	Variables map[string]string `json:"variables"`
}

// RenderResult is a template with its placeholders substituted.
type RenderResult struct {
	Text     string   `json:"text"`
	Template Template `json:"template"`
}

// ListTemplatesResponse is the response for listing templates.
type ListTemplatesResponse struct {
	Templates []Template `json:"templates"`
	Total     int        `json:"total"`
}

// VariablesResponse is the response for a template's placeholder names.
type VariablesResponse struct {
	TemplateID int      `json:"template_id"`
	Variables  []string `json:"variables"`
	Unique     bool     `json:"unique"`
}
