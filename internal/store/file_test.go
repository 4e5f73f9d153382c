package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmolloy8/dublinbikes-pipeline/internal/stations"
)

func TestFileSinkWritesOneArtifactPerCycle(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	batch := []stations.Record{
		{Number: 1, Name: "CHARLEMONT PLACE", Status: "OPEN"},
		{Number: 2, Name: "BLESSINGTON STREET", Status: "OPEN"},
	}

	ts := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	path, err := sink.WriteBatch("stations", batch, ts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if filepath.Base(path) != "stations_20231114T221320Z.json" {
		t.Errorf("unexpected artifact name: %s", path)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one artifact, found %d", len(entries))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}

	// Station names must appear verbatim.
	for _, name := range []string{"CHARLEMONT PLACE", "BLESSINGTON STREET"} {
		if !strings.Contains(string(data), name) {
			t.Errorf("artifact missing station name %q", name)
		}
	}

	var restored []stations.Record
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if len(restored) != 2 {
		t.Errorf("expected 2 records in artifact, got %d", len(restored))
	}
}
