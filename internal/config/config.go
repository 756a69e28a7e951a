// Package config loads pipeline configuration. Everything has a code default
// mirroring the production HDB resale setup, so a config file is optional;
// when present it overrides field by field.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Category distinguishes one-time historical loads from recurring ones.
type Category string

const (
	CategoryHistorical  Category = "historical"
	CategoryIncremental Category = "incremental"
)

// Dataset describes one upstream resource. Immutable once loaded.
type Dataset struct {
	Name     string   `yaml:"name"`
	SourceID string   `yaml:"source_id"`
	Category Category `yaml:"category"`
}

// Fetch tunes the paginated fetcher.
type Fetch struct {
	BaseURL         string   `yaml:"base_url"`
	PageSize        int      `yaml:"page_size"`
	MinPageSize     int      `yaml:"min_page_size"`
	MaxRetries      int      `yaml:"max_retries"`
	RetryBackoff    Duration `yaml:"retry_backoff"`
	PolitenessDelay Duration `yaml:"politeness_delay"`
	RequestTimeout  Duration `yaml:"request_timeout"`
}

// Buckets names the storage buckets the pipeline reads and writes.
type Buckets struct {
	Raw       string `yaml:"raw"`
	Processed string `yaml:"processed"`
}

// Rules holds the business-validation thresholds. They are configuration, not
// literals, because the acceptable bounds have been revised before.
type Rules struct {
	MinResalePrice float64 `yaml:"min_resale_price"`
	MaxResalePrice float64 `yaml:"max_resale_price"`
	MinFloorArea   float64 `yaml:"min_floor_area_sqm"`
	MaxFloorArea   float64 `yaml:"max_floor_area_sqm"`
	MinPricePerSqm float64 `yaml:"min_price_per_sqm"`
	MaxPricePerSqm float64 `yaml:"max_price_per_sqm"`
	MinLeaseYear   int     `yaml:"min_lease_commence_year"`
}

// Config is the full pipeline configuration.
type Config struct {
	Fetch    Fetch     `yaml:"fetch"`
	Buckets  Buckets   `yaml:"buckets"`
	Rules    Rules     `yaml:"rules"`
	Datasets []Dataset `yaml:"datasets"`

	// StorageDir is the root of the filesystem blob store used by the CLI.
	StorageDir string `yaml:"storage_dir"`

	// RegionMapping maps town to region; unmapped towns resolve to "Others".
	RegionMapping map[string]string `yaml:"region_mapping"`

	// MatureEstates lists towns designated long-established.
	MatureEstates []string `yaml:"mature_estates"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Fetch: Fetch{
			BaseURL:         "https://data.gov.sg/api/action/datastore_search",
			PageSize:        5000,
			MinPageSize:     1000,
			MaxRetries:      3,
			RetryBackoff:    Duration(2 * time.Second),
			PolitenessDelay: Duration(500 * time.Millisecond),
			RequestTimeout:  Duration(30 * time.Second),
		},
		Buckets: Buckets{
			Raw:       "hdb-resale-raw-data",
			Processed: "hdb-resale-processed-data",
		},
		Rules: Rules{
			MinResalePrice: 50_000,
			MaxResalePrice: 2_500_000,
			MinFloorArea:   20,
			MaxFloorArea:   400,
			MinPricePerSqm: 1_000,
			MaxPricePerSqm: 20_000,
			MinLeaseYear:   1960,
		},
		Datasets: []Dataset{
			{Name: "1990-1999", SourceID: "d_ebc5ab87086db484f88045b47411ebc5", Category: CategoryHistorical},
			{Name: "2000-2012", SourceID: "d_43f493c6c50d54243cc1eab0df142d6a", Category: CategoryHistorical},
			{Name: "2012-2014", SourceID: "d_2d5ff9ea31397b66239f245f57751537", Category: CategoryHistorical},
			{Name: "2015-2016", SourceID: "d_ea9ed51da2787afaf8e51f827c304208", Category: CategoryHistorical},
			{Name: "2017-onwards", SourceID: "d_8b84c4ee58e3cfc0ece0d773c8ca6abc", Category: CategoryIncremental},
		},
		StorageDir:    "data",
		RegionMapping: defaultRegionMapping(),
		MatureEstates: defaultMatureEstates(),
	}
}

func defaultRegionMapping() map[string]string {
	return map[string]string{
		"BISHAN":          "Central",
		"BUKIT MERAH":     "Central",
		"BUKIT TIMAH":     "Central",
		"CENTRAL AREA":    "Central",
		"GEYLANG":         "Central",
		"KALLANG/WHAMPOA": "Central",
		"MARINE PARADE":   "Central",
		"QUEENSTOWN":      "Central",
		"TOA PAYOH":       "Central",

		"ANG MO KIO": "North",
		"SEMBAWANG":  "North",
		"WOODLANDS":  "North",
		"YISHUN":     "North",

		"HOUGANG":   "North-East",
		"SENGKANG":  "North-East",
		"PUNGGOL":   "North-East",
		"SERANGOON": "North-East",

		"BEDOK":     "East",
		"PASIR RIS": "East",
		"TAMPINES":  "East",

		"BUKIT BATOK":   "West",
		"BUKIT PANJANG": "West",
		"CHOA CHU KANG": "West",
		"CLEMENTI":      "West",
		"JURONG EAST":   "West",
		"JURONG WEST":   "West",
	}
}

func defaultMatureEstates() []string {
	// Estates established before 1997.
	return []string{
		"ANG MO KIO", "BEDOK", "BISHAN", "BUKIT MERAH", "BUKIT TIMAH",
		"CENTRAL AREA", "CLEMENTI", "GEYLANG", "KALLANG/WHAMPOA",
		"MARINE PARADE", "QUEENSTOWN", "SERANGOON", "TAMPINES",
		"TOA PAYOH",
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Fetch.BaseURL) == "" {
		return fmt.Errorf("fetch.base_url is required")
	}
	if c.Fetch.MinPageSize > c.Fetch.PageSize {
		return fmt.Errorf("fetch.min_page_size (%d) must not exceed fetch.page_size (%d)",
			c.Fetch.MinPageSize, c.Fetch.PageSize)
	}
	seen := make(map[string]bool, len(c.Datasets))
	for _, d := range c.Datasets {
		if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.SourceID) == "" {
			return fmt.Errorf("dataset entries require name and source_id")
		}
		if d.Category != CategoryHistorical && d.Category != CategoryIncremental {
			return fmt.Errorf("dataset %q: invalid category %q", d.Name, d.Category)
		}
		if seen[d.Name] {
			return fmt.Errorf("duplicate dataset name %q", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// DatasetsForMode filters the catalog by invocation mode (all, historical,
// incremental).
func (c Config) DatasetsForMode(mode string) ([]Dataset, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "all":
		return c.Datasets, nil
	case string(CategoryHistorical):
		return c.filter(CategoryHistorical), nil
	case string(CategoryIncremental):
		return c.filter(CategoryIncremental), nil
	default:
		return nil, fmt.Errorf("invalid mode %q (expected all|historical|incremental)", mode)
	}
}

func (c Config) filter(cat Category) []Dataset {
	var out []Dataset
	for _, d := range c.Datasets {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}
