// internal/form/definition.go
//
// Gatehouse – Forms subsystem: YAML definition loader.
//
// Context
//   Each auth form is declared in a YAML file.  The file names the form
//   (its ID is the Mode it serves), its copy, and its fields.  Every field
//   carries an ordered list of rules; a rule is one go-playground/validator
//   tag plus the message shown when that tag fails.  The same definitions
//   drive the renderer (labels, input types, placeholders) and the server-
//   side validator, so there is one source of truth for both.
//
// Workflow
//   •  Default parses the definitions embedded from defs/*.yaml.
//   •  LoadDir parses an operator-supplied directory instead (forms.dir).
//   •  Both run validateDef on every file and require one definition per
//      Mode.  Bad YAML, unknown fields, unknown types, and rule tags the
//      validator does not understand all fail the load.
//   •  Schema.Def offers read-only access by Mode.
//
// Style
//   Comments follow full sentences, two spaces after periods, Oxford commas.
//   Helper comments use short noun phrases.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed defs/*.yaml
var embedded embed.FS

// -----------------------------------------------------------------------------
// Data structures
// -----------------------------------------------------------------------------

// Def represents one form definition loaded from YAML.
type Def struct {
	ID       Mode       `yaml:"id"`       // sign-in or sign-up.  Required.
	Title    string     `yaml:"title"`    // Heading above the form.
	Subtitle string     `yaml:"subtitle"` // One-line hint under the heading.
	Submit   string     `yaml:"submit"`   // Submit button label.
	Pending  string     `yaml:"pending"`  // Submit label while a submission is in flight.
	Fields   []FieldDef `yaml:"fields"`   // Rendered and validated in order.
}

// FieldDef describes a single input control.
type FieldDef struct {
	Name         Field  `yaml:"name"`         // Submission key, closed set.  Required.
	Label        string `yaml:"label"`        // Human-readable label.  Required.
	Type         string `yaml:"type"`         // text, email, or password.
	Placeholder  string `yaml:"placeholder"`  // Optional placeholder text.
	Autocomplete string `yaml:"autocomplete"` // Optional autocomplete hint.
	Rules        []Rule `yaml:"rules"`        // Evaluated in order; every failure is kept.
}

// Rule pairs one validator tag with its user-facing message.
type Rule struct {
	Tag     string `yaml:"tag"`
	Message string `yaml:"message"`
}

// required reports whether any rule is the bare "required" tag, which the
// renderer mirrors as an HTML required attribute.
func (f *FieldDef) required() bool {
	for _, r := range f.Rules {
		if r.Tag == "required" {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

// Schema holds one validated Def per Mode.  It is immutable after load and
// safe for concurrent use.
type Schema struct {
	defs map[Mode]*Def
	v    *validator.Validate
}

// Def returns the definition for m.
func (s *Schema) Def(m Mode) (*Def, bool) {
	d, ok := s.defs[m]
	return d, ok
}

// -----------------------------------------------------------------------------
// Loader API
// -----------------------------------------------------------------------------

// Default loads the definitions compiled into the binary.
func Default() (*Schema, error) {
	return LoadFS(embedded, "defs")
}

// LoadDir loads every “*.yaml” directly under dir.
func LoadDir(dir string) (*Schema, error) {
	if dir == "" {
		return nil, errors.New("LoadDir: empty directory")
	}
	return LoadFS(os.DirFS(dir), ".")
}

// LoadFS loads every “*.yaml” directly under dir in fsys.  Exactly one
// definition per Mode must be present.
func LoadFS(fsys fs.FS, dir string) (*Schema, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read form dir %s: %w", dir, err)
	}

	s := &Schema{defs: make(map[Mode]*Def, 2), v: validator.New()}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue // skip non-YAML
		}
		p := path.Join(dir, e.Name())
		d, err := loadDef(fsys, p, s.v)
		if err != nil {
			return nil, err // fail fast so issues surface loudly.
		}
		if _, dup := s.defs[d.ID]; dup {
			return nil, fmt.Errorf("form definition %s: duplicate id %q", p, d.ID)
		}
		s.defs[d.ID] = d
	}

	for _, m := range []Mode{SignIn, SignUp} {
		if _, ok := s.defs[m]; !ok {
			return nil, fmt.Errorf("form definitions in %s: missing %q", dir, m)
		}
	}
	return s, nil
}

// loadDef parses and validates one file.
func loadDef(fsys fs.FS, p string, v *validator.Validate) (*Def, error) {
	raw, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", p, err)
	}

	var d Def
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse YAML %s: %w", p, err)
	}

	if err := validateDef(&d, p, v); err != nil {
		return nil, err
	}
	return &d, nil
}

// -----------------------------------------------------------------------------
// Validation helpers
// -----------------------------------------------------------------------------

// knownTypes are the input types the renderer can emit.
var knownTypes = map[string]bool{
	"text":     true,
	"email":    true,
	"password": true,
}

// validateDef enforces structural rules that YAML tags cannot express.  It
// returns a descriptive error referencing the offending file.
func validateDef(d *Def, p string, v *validator.Validate) error {
	if _, ok := ParseMode(string(d.ID)); !ok {
		return fmt.Errorf("form definition %s: id %q is not sign-in or sign-up", p, d.ID)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("form definition %s: must have 'fields'", p)
	}

	seen := make(map[Field]struct{}, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if err := validateField(f, p, v); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("form %s: duplicate field name '%s'", p, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// validateField confirms that essential attributes are present and sane.
func validateField(f *FieldDef, p string, v *validator.Validate) error {
	if f.Name == "" {
		return fmt.Errorf("form %s: field missing 'name'", p)
	}
	if !f.Name.Known() {
		return fmt.Errorf("form %s: field '%s' is not one of name, email, password", p, f.Name)
	}
	if f.Label == "" {
		return fmt.Errorf("form %s: field '%s' missing 'label'", p, f.Name)
	}
	if !knownTypes[f.Type] {
		return fmt.Errorf("form %s: field '%s' has unsupported type %q", p, f.Name, f.Type)
	}
	for _, r := range f.Rules {
		if r.Message == "" {
			return fmt.Errorf("form %s: field '%s' rule %q missing 'message'", p, f.Name, r.Tag)
		}
		if err := checkTag(v, r.Tag); err != nil {
			return fmt.Errorf("form %s: field '%s': %w", p, f.Name, err)
		}
	}
	return nil
}

// checkTag runs tag once against an empty string.  The validator panics on
// tags it cannot parse, so the panic is turned into a load error here and
// never reaches request handling.
func checkTag(v *validator.Validate, tag string) (err error) {
	if strings.TrimSpace(tag) == "" {
		return errors.New("empty rule tag")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule tag %q rejected: %v", tag, r)
		}
	}()
	_ = v.Var("", tag)
	return nil
}
