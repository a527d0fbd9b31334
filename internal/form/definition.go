// internal/form/definition.go
//
// Forms subsystem: YAML definition loader.
//
// Context
//   Every form the portal accepts is declared in a YAML file.  The file names
//   the form, lists its fields, and carries the length rules and messages the
//   server enforces on submit.  Components embed their YAML under
//   “components/<comp>/forms/” and register it at init, so the rules and the
//   client hints served by GET /api/forms/{formID} come from one source.
//
// Workflow
//   •  Structs mirror the YAML schema: FormDef → FieldDef.
//   •  ParseFormDef decodes raw YAML and validates structural rules.
//   •  LoadFormDef reads one file from disk and calls ParseFormDef.
//   •  Registry.RegisterFS walks an embedded directory and registers each
//      “*.yaml”.  Later registrations override earlier ones by ID.
//
// Notes
//   Length rules are counted in UTF-16 code units, not bytes.  See
//   validate.go.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// FormDef represents one form definition loaded from YAML.
//
// ID should be namespaced by component, e.g. “request/donation”.
type FormDef struct {
	ID     string     `yaml:"id" json:"id"`
	Title  string     `yaml:"title" json:"title,omitempty"`
	Fields []FieldDef `yaml:"fields" json:"fields"`
}

// FieldDef describes a single input.  Validation metadata lives inline so
// the server enforces the same rules the client hints at.
type FieldDef struct {
	Name        string `yaml:"name" json:"name"`   // Submission key.  Required.
	Label       string `yaml:"label" json:"label"` // Human-readable label.  Required.
	Type        string `yaml:"type" json:"type"`   // text, tel, date, textarea, etc.
	Placeholder string `yaml:"placeholder" json:"placeholder,omitempty"`
	Required    bool   `yaml:"required" json:"required,omitempty"`
	Length      int    `yaml:"length" json:"length,omitempty"`       // exact length, 0 means unset
	MinLength   int    `yaml:"minlength" json:"minlength,omitempty"` // ≥ 0, 0 means unset
	MaxLength   int    `yaml:"maxlength" json:"maxlength,omitempty"` // ≥ 0, 0 means unset
	Pattern     string `yaml:"pattern" json:"pattern,omitempty"`
	ErrorMsg    string `yaml:"error" json:"error,omitempty"`

	re *regexp.Regexp
}

// Field returns the named FieldDef.
func (fd *FormDef) Field(name string) (*FieldDef, bool) {
	for i := range fd.Fields {
		if fd.Fields[i].Name == name {
			return &fd.Fields[i], true
		}
	}
	return nil, false
}

// Names lists field names in definition order.
func (fd *FormDef) Names() []string {
	out := make([]string, len(fd.Fields))
	for i, f := range fd.Fields {
		out[i] = f.Name
	}
	return out
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

// Registry maps form ID → *FormDef.  The zero value is not usable; call
// NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	forms map[string]*FormDef
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]*FormDef)}
}

// Default is the process-wide registry components register into.
var Default = NewRegistry()

// Register inserts or overrides fd.  Caller must ensure fd passed
// ParseFormDef.
func (r *Registry) Register(fd *FormDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms[fd.ID] = fd
}

// Get returns a parsed FormDef by ID.  The boolean is false when unknown.
func (r *Registry) Get(id string) (*FormDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fd, ok := r.forms[id]
	return fd, ok
}

// IDs returns the registered IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.forms))
	for id := range r.forms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RegisterFS loads every “*.yaml” directly under dir in fsys.  It fails
// fast so broken definitions surface at boot.
//
// Example:
//
//	//go:embed forms/*.yaml
//	var formsFS embed.FS
//
//	func init() { form.MustRegisterFS(formsFS, "forms") }
func (r *Registry) RegisterFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read form dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		p := path.Join(dir, e.Name())
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read form file %s: %w", p, err)
		}
		fd, err := ParseFormDef(raw, p)
		if err != nil {
			return err
		}
		r.Register(fd)
	}
	return nil
}

// MustRegisterFS registers into Default and panics on error.  Meant for
// component init functions.
func MustRegisterFS(fsys fs.FS, dir string) {
	if err := Default.RegisterFS(fsys, dir); err != nil {
		panic(err)
	}
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// LoadFormDef reads and parses one YAML file.  It never touches a registry.
func LoadFormDef(path string) (*FormDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	return ParseFormDef(raw, path)
}

// ParseFormDef decodes raw YAML and validates its structure.  source only
// labels error messages.
func ParseFormDef(raw []byte, source string) (*FormDef, error) {
	var fd FormDef
	if err := yaml.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", source, err)
	}
	if err := validateFormDef(&fd, source); err != nil {
		return nil, err
	}
	return &fd, nil
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

var errNoFields = errors.New("must have 'fields'")

// validateFormDef enforces structural rules that cannot be expressed via YAML
// tags alone.
func validateFormDef(fd *FormDef, source string) error {
	if fd.ID == "" {
		return fmt.Errorf("form definition %s: missing required 'id'", source)
	}
	if len(fd.Fields) == 0 {
		return fmt.Errorf("form definition %s: %w", source, errNoFields)
	}

	seen := make(map[string]struct{}, len(fd.Fields))
	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := validateField(f, source); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", source, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane,
// and compiles the pattern once.
func validateField(f *FieldDef, source string) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", source)
	}
	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", source, f.Name)
	}
	if f.Type == "" {
		return fmt.Errorf("form %s: field '%s' missing 'type'", source, f.Name)
	}

	if f.Length < 0 || f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("form %s: field '%s' length rules cannot be negative", source, f.Name)
	}
	if f.Length > 0 && (f.MinLength > 0 || f.MaxLength > 0) {
		return fmt.Errorf("form %s: field '%s' length cannot be combined with minlength/maxlength", source, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form %s: field '%s' minlength greater than maxlength", source, f.Name)
	}

	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("form %s: field '%s' invalid regex pattern: %v", source, f.Name, err)
		}
		f.re = re
	}
	return nil
}
