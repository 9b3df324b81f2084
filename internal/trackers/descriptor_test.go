package trackers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	table := Defaults()
	if len(table) != 9 {
		t.Fatalf("Defaults = %d descriptors, want 9", len(table))
	}
	if err := Validate(table); err != nil {
		t.Fatalf("Validate(Defaults): %v", err)
	}

	screen, ok := ByID(table, "screen")
	if !ok {
		t.Fatal("no screen tracker in defaults")
	}
	if screen.Type != TypeHours || screen.ValueKey != "screenTime" || screen.Collection != "screenTimeTracker" {
		t.Errorf("screen descriptor = %+v", screen)
	}

	mood, ok := ByID(table, "mood")
	if !ok || mood.ValueKey != "rating" {
		t.Errorf("mood descriptor = %+v, ok = %v", mood, ok)
	}
}

func TestValidateRejectsBadDescriptors(t *testing.T) {
	base := Descriptor{
		ID: "d", Title: "D", Collection: "dTracker",
		Type: TypeRating, ValueKey: "rating", Palette: ratingHighGreen(),
	}

	tests := []struct {
		name   string
		mutate func(*Descriptor)
	}{
		{"missing id", func(d *Descriptor) { d.ID = "" }},
		{"missing collection", func(d *Descriptor) { d.Collection = "" }},
		{"unknown type", func(d *Descriptor) { d.Type = "calories" }},
		{"missing value key", func(d *Descriptor) { d.ValueKey = "" }},
		{"short palette", func(d *Descriptor) { d.Palette = d.Palette[:3] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			tt.mutate(&d)
			if err := d.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	table := append(Defaults(), Defaults()[0])
	err := Validate(table)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Validate = %v", err)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	table, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != len(Defaults()) {
		t.Errorf("Load(\"\") = %d descriptors", len(table))
	}
}

func TestLoadYAML(t *testing.T) {
	var b strings.Builder
	b.WriteString("trackers:\n")
	b.WriteString("  - id: water\n")
	b.WriteString("    title: Water Intake\n")
	b.WriteString("    collection: waterTracker\n")
	b.WriteString("    type: rating\n")
	b.WriteString("    value_key: rating\n")
	b.WriteString("    palette:\n")
	for i := 10; i >= 0; i-- {
		fmt.Fprintf(&b, "      - {value: %d, label: \"%d\", color: \"#00FF00\"}\n", i, i)
	}

	path := filepath.Join(t.TempDir(), "trackers.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 1 || table[0].ID != "water" || len(table[0].Palette) != 11 {
		t.Errorf("Load = %+v", table)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("trackers: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty); err == nil {
		t.Error("Load accepted an empty tracker list")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("trackers:\n  - id: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load accepted an invalid descriptor")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load accepted a missing file")
	}
}
