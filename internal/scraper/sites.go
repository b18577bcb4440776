package scraper

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Site describes one supplier web shop.
type Site struct {
	Supplier      string     `yaml:"supplier"`
	BaseURL       string     `yaml:"base_url"`
	Category      string     `yaml:"category"`
	Currency      string     `yaml:"currency"`
	MaxPages      int        `yaml:"max_pages"`
	Manufacturers []Listing  `yaml:"manufacturers"`
	Selectors     Selectors  `yaml:"selectors"`
	Headers       []HeaderKV `yaml:"headers"`
}

// Listing is the product list of one manufacturer.
type Listing struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type HeaderKV struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Selectors are CSS selectors evaluated inside each product card, except
// Product and NextPage which apply to the whole page.
type Selectors struct {
	Product      string `yaml:"product"`
	Name         string `yaml:"name"`
	PartNumber   string `yaml:"part_number"`
	Price        string `yaml:"price"`
	Availability string `yaml:"availability"`
	Image        string `yaml:"image"`
	Link         string `yaml:"link"`
	Models       string `yaml:"models"`
	NextPage     string `yaml:"next_page"`
}

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

func LoadSites(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sites file %s", path)
	}
	return ParseSites(data)
}

func ParseSites(data []byte) ([]Site, error) {
	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse sites yaml")
	}
	for i := range f.Sites {
		s := &f.Sites[i]
		if err := s.validate(); err != nil {
			return nil, errors.Wrapf(err, "site %d", i)
		}
		s.BaseURL = strings.TrimRight(s.BaseURL, "/")
		if s.Currency == "" {
			s.Currency = "EUR"
		}
		if s.MaxPages <= 0 {
			s.MaxPages = 10
		}
	}
	return f.Sites, nil
}

func (s *Site) validate() error {
	switch {
	case s.Supplier == "":
		return errors.New("supplier is required")
	case s.BaseURL == "":
		return errors.New("base_url is required")
	case len(s.Manufacturers) == 0:
		return errors.New("at least one manufacturer listing is required")
	case s.Selectors.Product == "" || s.Selectors.Name == "":
		return errors.New("selectors.product and selectors.name are required")
	}
	for _, m := range s.Manufacturers {
		if m.Name == "" || m.Path == "" {
			return errors.New("manufacturer listings need a name and a path")
		}
	}
	return nil
}

// URL resolves a site relative path or keeps an absolute one.
func (s *Site) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.BaseURL + path
}
