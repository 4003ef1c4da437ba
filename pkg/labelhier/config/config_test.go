package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/labelhier/pkg/labelhier/assoc"
	"github.com/cognicore/labelhier/pkg/labelhier/decompose"
	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.PruneMinFreq != 50 || cfg.RootMinFreq != 50 || cfg.MapMinFreq != 100 {
		t.Errorf("Unexpected thresholds: %+v", cfg)
	}
	if cfg.Policy() != decompose.SinglePath {
		t.Errorf("Default policy should be single-path, got %v", cfg.Policy())
	}
	if cfg.Ratio() != assoc.SumRatio {
		t.Errorf("Default ratio should be sum, got %v", cfg.Ratio())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, "labelhier.yaml", `
map_min_freq: 20
descendant_policy: all-paths
cohesion_ratio: jaccard
workers: 4
store: runs.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MapMinFreq != 20 || cfg.Workers != 4 || cfg.Store != "runs.db" {
		t.Errorf("File values not applied: %+v", cfg)
	}
	if cfg.PruneMinFreq != 50 {
		t.Errorf("Missing keys should keep defaults, got prune_min_freq=%d", cfg.PruneMinFreq)
	}
	if cfg.Policy() != decompose.AllPaths || cfg.Ratio() != assoc.JaccardRatio {
		t.Errorf("Unexpected policy/ratio: %v/%v", cfg.Policy(), cfg.Ratio())
	}
}

func TestLoadDescendantMinFreq(t *testing.T) {
	cfg, err := Load(writeFile(t, "unset.yaml", "map_min_freq: 20\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DescendantMinFreq != nil {
		t.Errorf("Unset descendant_min_freq should stay nil, got %d", *cfg.DescendantMinFreq)
	}

	cfg, err = Load(writeFile(t, "zero.yaml", "descendant_min_freq: 0\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DescendantMinFreq == nil || *cfg.DescendantMinFreq != 0 {
		t.Errorf("Explicit zero should be kept, got %v", cfg.DescendantMinFreq)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative threshold", "prune_min_freq: -1\n"},
		{"negative descendant threshold", "descendant_min_freq: -5\n"},
		{"negative workers", "workers: -2\n"},
		{"unknown policy", "descendant_policy: breadth-first\n"},
		{"unknown ratio", "cohesion_ratio: cosine\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "bad.yaml", tt.content))
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeFile(t, "bad.yaml", "workers: [1\n")); err == nil {
		t.Error("Should error on malformed yaml")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/labelhier.yaml"); err == nil {
		t.Error("Should error on missing file")
	}
}
