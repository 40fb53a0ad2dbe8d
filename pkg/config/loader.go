package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/confsync/pkg/model"
)

// MetadataKey is the optional top-level section ignored by the engine.
const MetadataKey = "__metadata__"

// Format is the encoding of a desired-state document.
type Format string

const (
	// FormatYAML is a YAML document.
	FormatYAML Format = "yaml"

	// FormatJSON is a JSON document.
	FormatJSON Format = "json"
)

// FormatFromPath returns the format matching the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported document extension %q (expected .json, .yaml or .yml)", filepath.Ext(path))
	}
}

var variablePattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)}`)

// UndefinedVariableError lists the ${NAME} variables with no value.
type UndefinedVariableError struct {
	Names []string
}

// Error implements the error interface.
func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("undefined variable(s): %s", strings.Join(e.Names, ", "))
}

// DocumentError reports a structural defect of a document.
type DocumentError struct {
	// Path is the location in the document, e.g. "switches[2]".
	Path string

	// Line is the line of the defect, when known.
	Line int

	Err error
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Loader parses desired-state documents.
type Loader struct {
	lookup   func(string) (string, bool)
	validate *validator.Validate
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLookup sets the function resolving ${NAME} variables. The process
// environment is used by default.
func WithLookup(lookup func(string) (string, bool)) LoaderOption {
	return func(l *Loader) { l.lookup = lookup }
}

// NewLoader creates a loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		lookup:   os.LookupEnv,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadDocument reads and parses the document at path with the default
// loader.
func LoadDocument(path string) (*model.Document, error) {
	return NewLoader().Load(path)
}

// ParseDocument parses a document with the default loader.
func ParseDocument(data []byte, format Format) (*model.Document, error) {
	return NewLoader().Parse(data, format)
}

// Load reads and parses the document at path. The format follows the file
// extension.
func (l *Loader) Load(path string) (*model.Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := l.Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse interpolates variables, decodes and validates a document. Entities
// keep the order in which they appear.
func (l *Loader) Parse(data []byte, format Format) (*model.Document, error) {
	text, err := l.interpolate(data)
	if err != nil {
		return nil, err
	}

	if format == FormatJSON && !json.Valid(text) {
		var v any
		err := json.Unmarshal(text, &v)
		return nil, fmt.Errorf("invalid JSON document: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(text, &root); err != nil {
		return nil, fmt.Errorf("invalid %s document: %w", format, err)
	}
	if root.Kind == 0 {
		return model.NewDocument()
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("document must be a mapping from entity kind to a list of entities")
	}

	var (
		entities []model.Entity
		metadata map[string]any
	)
	top := root.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i], top.Content[i+1]

		if key.Value == MetadataKey {
			if err := value.Decode(&metadata); err != nil {
				return nil, &DocumentError{Path: MetadataKey, Line: value.Line, Err: err}
			}
			continue
		}

		info, ok := model.LookupDocumentKey(key.Value)
		if !ok {
			return nil, &DocumentError{Path: key.Value, Line: key.Line, Err: errors.New("unknown section")}
		}
		decoded, err := l.decodeSection(info, value)
		if err != nil {
			return nil, err
		}
		entities = append(entities, decoded...)
	}

	doc, err := model.NewDocument(entities...)
	if err != nil {
		return nil, err
	}
	doc.Metadata = metadata
	return doc, nil
}

func (l *Loader) decodeSection(info model.KindInfo, section *yaml.Node) ([]model.Entity, error) {
	if section.Kind == yaml.ScalarNode && section.Tag == "!!null" {
		return nil, nil
	}
	if section.Kind != yaml.SequenceNode {
		return nil, &DocumentError{Path: info.DocumentKey, Line: section.Line, Err: errors.New("expected a list of entities")}
	}

	target := reflect.TypeOf(info.New())
	entities := make([]model.Entity, 0, len(section.Content))
	for i, item := range section.Content {
		path := fmt.Sprintf("%s[%d]", info.DocumentKey, i)
		coerceScalars(item, target)

		var fields map[string]any
		if err := item.Decode(&fields); err != nil {
			return nil, &DocumentError{Path: path, Line: item.Line, Err: err}
		}
		data, err := json.Marshal(fields)
		if err != nil {
			return nil, &DocumentError{Path: path, Line: item.Line, Err: err}
		}
		e, err := model.Decode(info.Kind, data)
		if err != nil {
			return nil, &DocumentError{Path: path, Line: item.Line, Err: err}
		}
		if err := l.validate.Struct(e); err != nil {
			return nil, &DocumentError{Path: path, Line: item.Line, Err: describeValidation(info.Kind, err)}
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (l *Loader) interpolate(data []byte) ([]byte, error) {
	missing := make(map[string]bool)
	out := variablePattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := string(variablePattern.FindSubmatch(match)[1])
		value, ok := l.lookup(name)
		if !ok {
			missing[name] = true
			return match
		}
		return []byte(value)
	})
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, &UndefinedVariableError{Names: names}
	}
	return out, nil
}

// describeValidation turns validator errors into property names.
func describeValidation(kind model.Kind, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "invalid %s:", kind)
	for i, fe := range verrs {
		if i > 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, " %s failed %q", jsonPath(fe.Namespace()), fe.Tag())
	}
	return errors.New(buf.String())
}

// jsonPath drops the struct name and embedded struct names from a
// validator namespace such as "Switch.Scope.tenant".
func jsonPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	kept := parts[:0]
	for _, p := range parts {
		if p == "Scope" || p == "DNKey" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ".")
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
