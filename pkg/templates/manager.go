package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"text/template"

	"github.com/shopspring/decimal"
)

// Renderer interface for template rendering (for dependency injection)
type Renderer interface {
	ExecuteTemplate(name string, data any) (string, error)
	TemplateExists(name string) bool
}

// Manager renders named templates parsed from an embedded filesystem
type Manager struct {
	templates *template.Template
}

// GetDefaultFuncMap returns common template helper functions
func GetDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"float": func(val interface{}) float64 {
			switch v := val.(type) {
			case float64:
				return v
			case float32:
				return float64(v)
			case int:
				return float64(v)
			case decimal.Decimal:
				return v.InexactFloat64()
			case *decimal.Decimal:
				if v == nil {
					return 0
				}
				return v.InexactFloat64()
			default:
				return 0
			}
		},
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"deref": func(p *float64) float64 {
			if p == nil {
				return 0
			}
			return *p
		},
		"add": func(a, b int) int {
			return a + b
		},
		"printf": fmt.Sprintf,
	}
}

// NewManager parses all *.tmpl files in fsys (embedded at build time)
func NewManager(fsys fs.FS) (*Manager, error) {
	tmpl, err := template.New("root").Funcs(GetDefaultFuncMap()).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if len(tmpl.Templates()) == 0 {
		return nil, fmt.Errorf("no templates found")
	}

	return &Manager{templates: tmpl}, nil
}

// NewManagerWithValidation parses fsys and verifies required templates exist
func NewManagerWithValidation(fsys fs.FS, requiredTemplates []string) (*Manager, error) {
	manager, err := NewManager(fsys)
	if err != nil {
		return nil, err
	}

	for _, name := range requiredTemplates {
		if manager.templates.Lookup(name) == nil {
			return nil, fmt.Errorf("required template not found: %s", name)
		}
	}

	return manager, nil
}

// ExecuteTemplate renders template with data
func (m *Manager) ExecuteTemplate(name string, data any) (string, error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// TemplateExists reports whether a template was parsed
func (m *Manager) TemplateExists(name string) bool {
	return m.templates.Lookup(name) != nil
}
