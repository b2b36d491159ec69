package role

import (
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/dealerdesk/api/pkg/domain/shared"
)

//go:embed roles.yaml
var defaultCatalogYAML []byte

// Catalog is the immutable role table, loaded once at startup and shared
// read-only by every form session.
type Catalog struct {
	defs  map[Name]Definition
	order []Name
}

type catalogFile struct {
	Roles []Definition `yaml:"roles"`
}

// DefaultCatalog loads the embedded role table. The embedded file is part of
// the build, so a failure here is a programmer error and panics.
func DefaultCatalog() *Catalog {
	c, err := parseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded role catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a role table from YAML, for deployments that override the
// built-in catalog.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read role catalog: %w", err)
	}
	return parseCatalog(data)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse role catalog: %w", err)
	}
	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("%w: role catalog is empty", shared.ErrValidation)
	}

	c := &Catalog{
		defs:  make(map[Name]Definition, len(file.Roles)),
		order: make([]Name, 0, len(file.Roles)),
	}
	for _, def := range file.Roles {
		if _, dup := c.defs[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate role %q", shared.ErrValidation, def.Name)
		}
		c.defs[def.Name] = def
		c.order = append(c.order, def.Name)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate enforces catalog consistency: scopes are known, the geographic
// chain has no gaps (a role requiring territory also requires area and
// region), and every eligible manager role exists in the catalog.
func (c *Catalog) validate() error {
	for _, name := range c.order {
		def := c.defs[name]
		required := make(map[Scope]bool, len(def.RequiredScopes))
		for _, s := range def.RequiredScopes {
			if !s.IsValid() {
				return fmt.Errorf("%w: role %q has unknown scope %q", shared.ErrValidation, name, s)
			}
			required[s] = true
		}
		if required[ScopeTerritory] && !required[ScopeArea] {
			return fmt.Errorf("%w: role %q requires territory without area", shared.ErrValidation, name)
		}
		if required[ScopeArea] && !required[ScopeRegion] {
			return fmt.Errorf("%w: role %q requires area without region", shared.ErrValidation, name)
		}
		for _, m := range def.EligibleManagerRoles {
			if _, ok := c.defs[m]; !ok {
				return fmt.Errorf("%w: role %q lists unknown manager role %q", shared.ErrValidation, name, m)
			}
		}
	}
	return nil
}

// Get returns the definition for a role name.
func (c *Catalog) Get(n Name) (Definition, bool) {
	def, ok := c.defs[n]
	return def, ok
}

// Resolve normalizes a label and returns its definition.
func (c *Catalog) Resolve(label string) (Definition, error) {
	n := Canonical(label)
	def, ok := c.defs[n]
	if !ok {
		return Definition{}, fmt.Errorf("%w: unknown role %q", shared.ErrValidation, label)
	}
	return def, nil
}

// Roles returns every definition in catalog order.
func (c *Catalog) Roles() []Definition {
	out := make([]Definition, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.defs[n])
	}
	return out
}

// Len returns the number of roles in the catalog.
func (c *Catalog) Len() int {
	return len(c.order)
}
