package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ROI.W != 180 || cfg.ROI.H != 160 {
		t.Errorf("roi: got %dx%d, want 180x160", cfg.ROI.W, cfg.ROI.H)
	}
	if cfg.Gap.PolyDegree != 6 || cfg.Gap.EdgeMargin != 25 {
		t.Errorf("gap defaults not applied: %+v", cfg.Gap)
	}
	if cfg.Batch.TopN != 10 {
		t.Errorf("top_n: got %d, want 10", cfg.Batch.TopN)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
roi:
  width: 90
  height: 80
batch:
  workers: 4
  dice_threshold: 0.75
gap:
  edge_margin: 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ROI.W != 90 || cfg.ROI.H != 80 {
		t.Errorf("roi: got %dx%d, want 90x80", cfg.ROI.W, cfg.ROI.H)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("workers: got %d, want 4", cfg.Batch.Workers)
	}
	if cfg.Batch.DiceThreshold != 0.75 {
		t.Errorf("dice threshold: got %v, want 0.75", cfg.Batch.DiceThreshold)
	}
	if cfg.Gap.EdgeMargin != 10 {
		t.Errorf("edge_margin: got %d, want 10", cfg.Gap.EdgeMargin)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Gap.PolyDegree != 6 {
		t.Errorf("poly_degree default lost: got %d", cfg.Gap.PolyDegree)
	}
	if cfg.Batch.TopN != 10 {
		t.Errorf("top_n default lost: got %d", cfg.Batch.TopN)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errPart string
	}{
		{"bad yaml", "roi: [", "parse config"},
		{"zero roi", "roi:\n  width: 0\n  height: 50\n", "roi size"},
		{"negative workers", "batch:\n  workers: -2\n", "workers"},
		{"threshold above one", "batch:\n  dice_threshold: 1.5\n", "threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("want error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q does not mention %q", err, tt.errPart)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("want error for missing file")
	}
}
