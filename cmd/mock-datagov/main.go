// Command mock-datagov serves a datastore_search-compatible API from local
// CSV files, for smoke-testing the pipeline without hitting the real
// upstream. Each CSV in the input directory named <resource_id>.csv becomes a
// servable resource.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sgproperty/resale-etl/pkg/mockdatagov"
)

func main() {
	addr := defaultString("MOCK_DATAGOV_ADDR", ":8080")
	inputDir := defaultString("MOCK_DATAGOV_INPUT_DIR", "testdata")
	maxLimit := 0

	fs := flag.NewFlagSet("mock-datagov", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&inputDir, "input-dir", inputDir, "Directory containing CSVs named <resource_id>.csv")
	fs.IntVar(&maxLimit, "max-limit", maxLimit, "Reject page requests above this limit with 413 (0 disables)")
	_ = fs.Parse(os.Args[1:])

	srv := mockdatagov.New()
	if maxLimit > 0 {
		srv.RejectLimitsAbove(maxLimit)
	}

	loaded, err := loadResources(srv, inputDir)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load resources: %v\n", err)
		os.Exit(1)
	}

	_, _ = fmt.Fprintf(os.Stdout, "mock-datagov listening on %s (resources=%d input=%s)\n", addr, loaded, inputDir)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func loadResources(srv *mockdatagov.Server, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	loaded := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		records, err := readRecordsCSV(filepath.Join(dir, e.Name()))
		if err != nil {
			return loaded, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		srv.SetResource(strings.TrimSuffix(e.Name(), ".csv"), records)
		loaded++
	}
	return loaded, nil
}

func readRecordsCSV(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records []map[string]any
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		records = append(records, row)
	}
	return records, nil
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
