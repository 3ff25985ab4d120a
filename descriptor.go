package selectfield

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Searchable accepts either a boolean or a list of search columns in YAML,
// mirroring the configuration surface where `searchable` is bool|string[].
type Searchable struct {
	Enabled bool
	Columns []string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Searchable) UnmarshalYAML(value *yaml.Node) error {
	var enabled bool
	if err := value.Decode(&enabled); err == nil {
		s.Enabled = enabled
		s.Columns = nil
		return nil
	}

	var columns []string
	if err := value.Decode(&columns); err != nil {
		return fmt.Errorf("selectfield: searchable must be a bool or a list of columns: %w", err)
	}
	s.Enabled = len(columns) > 0
	s.Columns = columns
	return nil
}

// Descriptor is the declarative YAML form of a field configuration. It covers
// everything that does not need code: flags, limits, messages and a static
// option set. Callback-backed sources are attached in code via extra options.
type Descriptor struct {
	ID       string `yaml:"id"`
	Multiple bool   `yaml:"multiple"`
	Disabled bool   `yaml:"disabled"`

	Searchable Searchable `yaml:"searchable"`
	Preload    bool       `yaml:"preload"`
	AllowHTML  bool       `yaml:"allow_html"`

	OptionsLimit   int    `yaml:"options_limit"`
	SearchDebounce string `yaml:"search_debounce"`

	MinItems                    *int `yaml:"min_items"`
	MaxItems                    *int `yaml:"max_items"`
	DisablePlaceholderSelection bool `yaml:"disable_placeholder_selection"`

	DisableWhen string `yaml:"disable_when"`

	Options map[string]string `yaml:"options"`

	Messages struct {
		Loading         string `yaml:"loading"`
		NoSearchResults string `yaml:"no_search_results"`
		Searching       string `yaml:"searching"`
		SearchPrompt    string `yaml:"search_prompt"`
		Placeholder     string `yaml:"placeholder"`
	} `yaml:"messages"`
}

// LoadDescriptor reads and parses a YAML descriptor.
func LoadDescriptor(r io.Reader) (Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Descriptor{}, fmt.Errorf("selectfield: read descriptor: %w", err)
	}
	return ParseDescriptor(data)
}

// ParseDescriptor parses a YAML descriptor document.
func ParseDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("selectfield: parse descriptor: %w", err)
	}
	return d, nil
}

// FieldOptions maps the descriptor onto functional options. Extra options
// (typically the option source for non-static fields) are appended after the
// descriptor's own, so code can complete what YAML declares.
func (d Descriptor) FieldOptions(extra ...Option) ([]Option, error) {
	var opts []Option

	if d.ID != "" {
		opts = append(opts, WithID(d.ID))
	}
	if d.Multiple {
		opts = append(opts, WithMultiple())
	}
	if d.Disabled {
		opts = append(opts, WithDisabled())
	}
	if d.Searchable.Enabled {
		opts = append(opts, WithSearchable(d.Searchable.Columns...))
	}
	if d.Preload {
		opts = append(opts, WithPreload())
	}
	if d.AllowHTML {
		opts = append(opts, WithAllowHTML())
	}
	if d.OptionsLimit > 0 {
		opts = append(opts, WithOptionsLimit(d.OptionsLimit))
	}
	if d.SearchDebounce != "" {
		debounce, err := time.ParseDuration(d.SearchDebounce)
		if err != nil {
			return nil, fmt.Errorf("selectfield: parse search_debounce: %w", err)
		}
		opts = append(opts, WithSearchDebounce(debounce))
	}
	if d.MinItems != nil {
		opts = append(opts, WithMinItems(*d.MinItems))
	}
	if d.MaxItems != nil {
		opts = append(opts, WithMaxItems(*d.MaxItems))
	}
	if d.DisablePlaceholderSelection {
		opts = append(opts, WithDisablePlaceholderSelection())
	}
	if d.DisableWhen != "" {
		opts = append(opts, WithDisableOptionExpr(d.DisableWhen))
	}
	if len(d.Options) > 0 {
		opts = append(opts, WithOptions(d.Options))
	}

	messages := Messages{
		Loading:         d.Messages.Loading,
		NoSearchResults: d.Messages.NoSearchResults,
		Searching:       d.Messages.Searching,
		SearchPrompt:    d.Messages.SearchPrompt,
		Placeholder:     d.Messages.Placeholder,
	}
	if messages != (Messages{}) {
		opts = append(opts, WithMessages(messages))
	}

	return append(opts, extra...), nil
}

// NewFromDescriptor builds a field straight from a descriptor plus any extra
// options needed to complete it.
func NewFromDescriptor(d Descriptor, extra ...Option) (*Field, error) {
	opts, err := d.FieldOptions(extra...)
	if err != nil {
		return nil, err
	}
	return New(opts...)
}
