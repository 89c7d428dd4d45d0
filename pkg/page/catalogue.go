package page

import (
	"bytes"
	_ "embed"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/counsel/internal/errors"
)

//go:embed pages.yaml
var builtinPages []byte

// Catalogue is an ordered set of page definitions.
type Catalogue struct {
	defs  map[string]*Definition
	order []string
}

type catalogueFile struct {
	Pages []*Definition `yaml:"pages"`
}

// ParseCatalogue decodes and compiles a YAML catalogue. Unknown keys are
// rejected.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file catalogueFile
	if err := dec.Decode(&file); err != nil {
		return nil, errors.New("C410").
			WithDetail(err.Error()).
			WithSuggestion("Check the catalogue YAML against the page fields")
	}

	c := &Catalogue{defs: make(map[string]*Definition, len(file.Pages))}
	for _, d := range file.Pages {
		if d == nil {
			continue
		}
		if err := d.compile(); err != nil {
			return nil, err
		}
		if _, dup := c.defs[d.Name]; dup {
			return nil, errors.New("C410").WithField(d.Name).WithDetail("duplicate page")
		}
		c.defs[d.Name] = d
		c.order = append(c.order, d.Name)
	}
	return c, nil
}

// LoadCatalogue reads a catalogue file. An empty path loads the built-in
// catalogue.
func LoadCatalogue(path string) (*Catalogue, error) {
	if path == "" {
		return ParseCatalogue(builtinPages)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FromError(err, "C410").WithField("paths.pages")
	}
	return ParseCatalogue(data)
}

// Names returns the page names in catalogue order.
func (c *Catalogue) Names() []string {
	return append([]string(nil), c.order...)
}

// Get returns the named page definition.
func (c *Catalogue) Get(name string) (*Definition, error) {
	d, ok := c.defs[name]
	if !ok {
		return nil, errors.New("C411").
			WithField(name).
			WithSuggestion("Run 'counsel pages' to list the catalogue")
	}
	return d, nil
}

// Len returns the number of pages.
func (c *Catalogue) Len() int {
	return len(c.order)
}
