// Package content holds the text shown on the portfolio page: hero copy,
// project list, career history, skills and contact details.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/walter-ryan/portfolio/internal/projects"
	"github.com/walter-ryan/portfolio/internal/timeline"
)

//go:embed default.yaml
var defaultContent []byte

type Hero struct {
	Name     string `yaml:"name"`
	Headline string `yaml:"headline"`
	About    string `yaml:"about"`
}

type Project struct {
	Repo      string             `yaml:"repo"`
	Overrides projects.Overrides `yaml:",inline"`
}

type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type Contact struct {
	Email string `yaml:"email"`
	Links []Link `yaml:"links"`
}

type Site struct {
	Hero     Hero             `yaml:"hero"`
	Projects []Project        `yaml:"projects"`
	Career   []timeline.Entry `yaml:"career"`
	Skills   []string         `yaml:"skills"`
	Tools    []string         `yaml:"tools"`
	Contact  Contact          `yaml:"contact"`
}

// Default returns the built-in site content.
func Default() (*Site, error) {
	return Parse(defaultContent)
}

// Load reads site content from path, or the built-in content when path is empty.
func Load(path string) (*Site, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if err := site.validate(); err != nil {
		return nil, err
	}
	return &site, nil
}

// ProjectSpecs returns the project board configuration in display order.
func (s *Site) ProjectSpecs() []projects.Spec {
	specs := make([]projects.Spec, len(s.Projects))
	for i, p := range s.Projects {
		specs[i] = projects.Spec{Repo: p.Repo, Overrides: p.Overrides}
	}
	return specs
}

func (s *Site) validate() error {
	var errs []error
	if strings.TrimSpace(s.Hero.Name) == "" {
		errs = append(errs, errors.New("hero.name is required"))
	}
	for i, p := range s.Projects {
		if strings.TrimSpace(p.Repo) == "" {
			errs = append(errs, fmt.Errorf("projects[%d].repo is required", i))
		}
	}
	for i := range s.Career {
		e := &s.Career[i]
		if strings.TrimSpace(e.Title) == "" {
			errs = append(errs, fmt.Errorf("career[%d].title is required", i))
		}
		if _, ok := timeline.Colors[e.Color]; !ok {
			if e.Color != "" {
				log.Printf("Unknown career color %q for %s, using gray", e.Color, e.Title)
			}
			e.Color = "gray"
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid content: %w", errors.Join(errs...))
	}
	return nil
}
