package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"daily-digest/internal/domain/entity"
)

//go:embed defaults/catalog.yaml
var defaultCatalog []byte

// Catalog lists the content types served and their upstream sources.
type Catalog struct {
	ContentTypes []ContentType `yaml:"content_types"`
}

// ContentType describes one digest kind.
type ContentType struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	Aliases       []string `yaml:"aliases"`
	DefaultFormat string   `yaml:"default_format"`
	Formats       []string `yaml:"formats"`
	// FormatParam marks upstreams that select JSON or image output through a
	// "format" query parameter.
	FormatParam bool `yaml:"format_param"`
	// MaxItems caps the items of a fetched bundle. 0 means no cap.
	MaxItems int            `yaml:"max_items"`
	Sources  []SourceConfig `yaml:"sources"`
}

// SourceConfig is one upstream endpoint of a content type.
type SourceConfig struct {
	URL      string `yaml:"url"`
	Priority int    `yaml:"priority"`
	Parser   string `yaml:"parser"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog from a YAML file. An empty path selects the
// built-in catalog.
// The path parameter is expected to come from operator configuration.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	// #nosec G304 -- path is provided by operator configuration, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for i := range catalog.ContentTypes {
		catalog.ContentTypes[i].applyDefaults()
	}

	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}
	return &catalog, nil
}

func (ct *ContentType) applyDefaults() {
	if len(ct.Formats) == 0 {
		ct.Formats = []string{entity.FormatImage, entity.FormatText}
	}
	if ct.DefaultFormat == "" {
		ct.DefaultFormat = ct.Formats[0]
	}
}

// Validate checks names, aliases, formats and sources.
// Every failure is an *entity.ConfigurationError.
func (c *Catalog) Validate() error {
	if len(c.ContentTypes) == 0 {
		return &entity.ConfigurationError{Field: "content_types", Message: "at least one content type is required"}
	}

	names := make(map[string]string)
	claim := func(field, name, owner string) error {
		key := strings.ToLower(name)
		if prev, ok := names[key]; ok {
			return &entity.ConfigurationError{
				Field:   field,
				Message: fmt.Sprintf("%q of %q already used by %q", name, owner, prev),
			}
		}
		names[key] = owner
		return nil
	}

	for _, ct := range c.ContentTypes {
		if strings.TrimSpace(ct.Name) == "" {
			return &entity.ConfigurationError{Field: "name", Message: "content type name is required"}
		}
		if err := claim("name", ct.Name, ct.Name); err != nil {
			return err
		}
		for _, alias := range ct.Aliases {
			if strings.TrimSpace(alias) == "" {
				return &entity.ConfigurationError{Field: "aliases", Message: fmt.Sprintf("empty alias in %q", ct.Name)}
			}
			if err := claim("aliases", alias, ct.Name); err != nil {
				return err
			}
		}
		if err := ct.validateFormats(); err != nil {
			return err
		}
		if ct.MaxItems < 0 {
			return &entity.ConfigurationError{Field: "max_items", Message: fmt.Sprintf("%q: must not be negative", ct.Name)}
		}
		if _, err := ct.EntitySources(); err != nil {
			return err
		}
	}
	return nil
}

func (ct *ContentType) validateFormats() error {
	for _, f := range ct.Formats {
		if !entity.ValidFormat(f) {
			return &entity.ConfigurationError{
				Field:   "formats",
				Message: fmt.Sprintf("%q: unknown format %q", ct.Name, f),
			}
		}
	}
	if !ct.SupportsFormat(ct.DefaultFormat) {
		return &entity.ConfigurationError{
			Field:   "default_format",
			Message: fmt.Sprintf("%q: default format %q is not among %v", ct.Name, ct.DefaultFormat, ct.Formats),
		}
	}
	return nil
}

// SupportsFormat reports whether f is one of the content type's formats.
func (ct *ContentType) SupportsFormat(f string) bool {
	for _, known := range ct.Formats {
		if known == f {
			return true
		}
	}
	return false
}

// EntitySources converts the configured sources into registrable entities.
func (ct *ContentType) EntitySources() ([]entity.Source, error) {
	if len(ct.Sources) == 0 {
		return nil, &entity.ConfigurationError{Field: "sources", Message: fmt.Sprintf("%q: at least one source is required", ct.Name)}
	}

	out := make([]entity.Source, 0, len(ct.Sources))
	for _, sc := range ct.Sources {
		kind, err := entity.ParseParserKind(sc.Parser)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ct.Name, err)
		}
		src := entity.NewSource(sc.URL, sc.Priority, kind)
		if err := src.Validate(); err != nil {
			return nil, &entity.ConfigurationError{
				Field:   "url",
				Message: fmt.Sprintf("%q: invalid source %q", ct.Name, sc.URL),
				Err:     err,
			}
		}
		out = append(out, src)
	}
	return out, nil
}

// Resolve finds a content type by name or alias, ignoring case.
func (c *Catalog) Resolve(nameOrAlias string) (*ContentType, bool) {
	needle := strings.TrimSpace(nameOrAlias)
	for i := range c.ContentTypes {
		ct := &c.ContentTypes[i]
		if strings.EqualFold(ct.Name, needle) {
			return ct, true
		}
		for _, alias := range ct.Aliases {
			if strings.EqualFold(alias, needle) {
				return ct, true
			}
		}
	}
	return nil, false
}

// Names returns the content type names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.ContentTypes))
	for _, ct := range c.ContentTypes {
		out = append(out, ct.Name)
	}
	return out
}
