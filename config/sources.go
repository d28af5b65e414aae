package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aquaregwatch/regwatch/lib/models"
)

const defaultCheckInterval = 4 * time.Hour

type catalogueFile struct {
	Sources       []sourceDef  `yaml:"sources"`
	Keywords      []keywordDef `yaml:"keywords"`
	NoisePatterns []string     `yaml:"noise_patterns"`
}

type sourceDef struct {
	ID            string       `yaml:"id"`
	URL           string       `yaml:"url"`
	Category      string       `yaml:"category"`
	Priority      string       `yaml:"priority"`
	CheckInterval string       `yaml:"check_interval"`
	Selectors     []string     `yaml:"selectors"`
	Keywords      []keywordDef `yaml:"keywords"`
}

type keywordDef struct {
	Term     string `yaml:"term"`
	Category string `yaml:"category"`
}

// loadCatalogue reads and validates the YAML source catalogue. Every
// problem it finds is a startup-fatal configuration error.
func loadCatalogue(path string, generation int) (models.Sources, []models.Keyword, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file catalogueFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if len(file.Sources) == 0 {
		return nil, nil, nil, fmt.Errorf("config: %s declares no sources", path)
	}

	for _, p := range file.NoisePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return nil, nil, nil, fmt.Errorf("config: bad noise pattern %q: %w", p, err)
		}
	}

	keywords, err := parseKeywords(file.Keywords)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(keywords) == 0 {
		keywords = DefaultKeywords()
	}

	seen := make(map[string]bool)
	sources := make(models.Sources, 0, len(file.Sources))
	for i, def := range file.Sources {
		src, err := parseSource(def, generation)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("config: source %d: %w", i, err)
		}
		if seen[src.ID] {
			return nil, nil, nil, fmt.Errorf("config: duplicate source id %q", src.ID)
		}
		seen[src.ID] = true
		sources = append(sources, src)
	}

	return sources, keywords, file.NoisePatterns, nil
}

func parseSource(def sourceDef, generation int) (*models.Source, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("missing id")
	}

	parsed, err := url.Parse(def.URL)
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" {
		return nil, fmt.Errorf("%s: invalid url %q", def.ID, def.URL)
	}

	priority := models.Priority(def.Priority)
	if def.Priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%s: invalid priority %q", def.ID, def.Priority)
	}

	interval := defaultCheckInterval
	if def.CheckInterval != "" {
		interval, err = time.ParseDuration(def.CheckInterval)
		if err != nil || interval <= 0 {
			return nil, fmt.Errorf("%s: invalid check_interval %q", def.ID, def.CheckInterval)
		}
	}

	keywords, err := parseKeywords(def.Keywords)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.ID, err)
	}

	return &models.Source{
		ID:            def.ID,
		URL:           def.URL,
		Category:      def.Category,
		Priority:      priority,
		CheckInterval: interval,
		Selectors:     def.Selectors,
		Keywords:      keywords,
		Generation:    generation,
	}, nil
}

func parseKeywords(defs []keywordDef) ([]models.Keyword, error) {
	if len(defs) == 0 {
		return nil, nil
	}

	out := make([]models.Keyword, 0, len(defs))
	for _, def := range defs {
		if def.Term == "" {
			return nil, fmt.Errorf("keyword with empty term")
		}
		category := models.KeywordCategory(def.Category)
		if def.Category == "" {
			category = models.KeywordGeneral
		}
		if !category.Valid() {
			return nil, fmt.Errorf("keyword %q: invalid category %q", def.Term, def.Category)
		}
		out = append(out, models.Keyword{Term: def.Term, Category: category})
	}
	return out, nil
}
