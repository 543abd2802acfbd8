package onboarding

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var catalogYAML []byte

// Option is a selectable answer with a display label.
type Option struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Catalog holds the answer choices offered by the onboarding steps.
type Catalog struct {
	UserTypes       []Option `yaml:"user_types" json:"user_types"`
	HairTypes       []Option `yaml:"hair_types" json:"hair_types"`
	Porosity        []Option `yaml:"porosity" json:"porosity"`
	Goals           []string `yaml:"goals" json:"goals"`
	ProgressSteps   []Step   `yaml:"progress_steps" json:"progress_steps"`
	LoadingMessages []string `yaml:"loading_messages" json:"loading_messages"`
}

var defaultCatalog = mustParseCatalog(catalogYAML)

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// ParseCatalog decodes a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse onboarding catalog: %w", err)
	}
	if len(c.UserTypes) == 0 || len(c.HairTypes) == 0 || len(c.Porosity) == 0 || len(c.Goals) == 0 {
		return nil, fmt.Errorf("onboarding catalog is incomplete")
	}
	for _, s := range c.ProgressSteps {
		if _, ok := table[s]; !ok {
			return nil, fmt.Errorf("onboarding catalog: unknown progress step %q", s)
		}
	}
	return &c, nil
}

func mustParseCatalog(data []byte) *Catalog {
	c, err := ParseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

func hasOption(opts []Option, id string) bool {
	return slices.ContainsFunc(opts, func(o Option) bool { return o.ID == id })
}

func (c *Catalog) IsUserType(v string) bool { return hasOption(c.UserTypes, v) }
func (c *Catalog) IsHairType(v string) bool { return hasOption(c.HairTypes, v) }
func (c *Catalog) IsPorosity(v string) bool { return hasOption(c.Porosity, v) }
func (c *Catalog) IsGoal(v string) bool     { return slices.Contains(c.Goals, v) }

// Progress returns the 1-based position of step among the progress steps.
func (c *Catalog) Progress(step Step) (pos, total int, ok bool) {
	i := slices.Index(c.ProgressSteps, step)
	if i < 0 {
		return 0, len(c.ProgressSteps), false
	}
	return i + 1, len(c.ProgressSteps), true
}
