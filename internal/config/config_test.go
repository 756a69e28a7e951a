package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Datasets) != 5 {
		t.Fatalf("expected 5 catalog entries, got %d", len(cfg.Datasets))
	}
	if cfg.RegionMapping["ANG MO KIO"] != "North" {
		t.Fatalf("region mapping missing: %v", cfg.RegionMapping["ANG MO KIO"])
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fetch.PageSize != 5000 {
		t.Fatalf("page size: got %d", cfg.Fetch.PageSize)
	}
}

func TestLoadOverridesFieldByField(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
fetch:
  page_size: 200
  min_page_size: 50
  politeness_delay: 250ms
  retry_backoff: 1s
rules:
  min_resale_price: 10000
storage_dir: /tmp/resale
datasets:
  - name: sample
    source_id: d_sample
    category: incremental
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fetch.PageSize != 200 || cfg.Fetch.MinPageSize != 50 {
		t.Fatalf("fetch override: %+v", cfg.Fetch)
	}
	if cfg.Fetch.PolitenessDelay.Std() != 250*time.Millisecond {
		t.Fatalf("politeness delay: got %v", cfg.Fetch.PolitenessDelay.Std())
	}
	if cfg.Fetch.RetryBackoff.Std() != time.Second {
		t.Fatalf("retry backoff: got %v", cfg.Fetch.RetryBackoff.Std())
	}
	if cfg.Rules.MinResalePrice != 10000 {
		t.Fatalf("rules override: %+v", cfg.Rules)
	}
	// Untouched fields keep their defaults.
	if cfg.Rules.MaxResalePrice != 2_500_000 {
		t.Fatalf("untouched rule lost default: %+v", cfg.Rules)
	}
	if cfg.Fetch.BaseURL == "" {
		t.Fatal("base URL default lost")
	}
	if len(cfg.Datasets) != 1 || cfg.Datasets[0].Name != "sample" {
		t.Fatalf("datasets override: %+v", cfg.Datasets)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bad duration": "fetch:\n  retry_backoff: fast\n",
		"min above page size": `
fetch:
  page_size: 100
  min_page_size: 500
`,
		"bad category": `
datasets:
  - name: sample
    source_id: d_sample
    category: weekly
`,
		"missing source id": `
datasets:
  - name: sample
    category: incremental
`,
		"duplicate names": `
datasets:
  - name: sample
    source_id: d_one
    category: incremental
  - name: sample
    source_id: d_two
    category: historical
`,
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDatasetsForMode(t *testing.T) {
	t.Parallel()
	cfg := Default()

	all, err := cfg.DatasetsForMode("all")
	if err != nil || len(all) != len(cfg.Datasets) {
		t.Fatalf("all: %d datasets, err=%v", len(all), err)
	}

	blank, err := cfg.DatasetsForMode("")
	if err != nil || len(blank) != len(cfg.Datasets) {
		t.Fatalf("blank mode: %d datasets, err=%v", len(blank), err)
	}

	hist, err := cfg.DatasetsForMode("historical")
	if err != nil || len(hist) != 4 {
		t.Fatalf("historical: %d datasets, err=%v", len(hist), err)
	}
	for _, d := range hist {
		if d.Category != CategoryHistorical {
			t.Fatalf("wrong category in historical filter: %+v", d)
		}
	}

	inc, err := cfg.DatasetsForMode("Incremental")
	if err != nil || len(inc) != 1 || inc[0].Name != "2017-onwards" {
		t.Fatalf("incremental: %+v, err=%v", inc, err)
	}

	if _, err := cfg.DatasetsForMode("bogus"); err == nil ||
		!strings.Contains(err.Error(), "invalid mode") {
		t.Fatalf("expected invalid mode error, got %v", err)
	}
}
