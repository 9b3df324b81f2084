// Package trackers holds the tracker descriptor table and the tracker
// year normalization rules.
//
// A descriptor describes one calendar tracker (mood, sleep, screen time,
// ...): which remote collection it lives in, which value key its cells
// carry, and how the UI paints it. The sync and service layers only care
// about (id, collection, value key); palettes and labels ride along for
// the UI.
package trackers

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Tracker value types.
const (
	TypeRating = "rating"
	TypeHours  = "hours"
)

// PaletteEntry maps one tracker value to its label and color.
type PaletteEntry struct {
	Value int    `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
	Color string `yaml:"color" json:"color"`
}

// Descriptor describes one tracker.
type Descriptor struct {
	ID          string         `yaml:"id" json:"id"`
	Title       string         `yaml:"title" json:"title"`
	Description string         `yaml:"description" json:"description"`
	Collection  string         `yaml:"collection" json:"collection"`
	Type        string         `yaml:"type" json:"type"`
	ValueKey    string         `yaml:"value_key" json:"valueKey"`
	Palette     []PaletteEntry `yaml:"palette" json:"palette"`
}

// Validate validates a descriptor.
func (d Descriptor) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required),
		validation.Field(&d.Title, validation.Required),
		validation.Field(&d.Collection, validation.Required),
		validation.Field(&d.Type, validation.Required, validation.In(TypeRating, TypeHours)),
		validation.Field(&d.ValueKey, validation.Required),
		validation.Field(&d.Palette, validation.Length(10, 11)),
	)
}

// Validate validates a descriptor list: each entry valid, ids unique.
func Validate(descriptors []Descriptor) error {
	seen := make(map[string]struct{}, len(descriptors))
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("trackers: descriptor %q: %w", d.ID, err)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("trackers: duplicate descriptor id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

// Load reads a descriptor list from a YAML file. An empty path returns the
// built-in defaults.
func Load(path string) ([]Descriptor, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trackers: read %s: %w", path, err)
	}
	var file struct {
		Trackers []Descriptor `yaml:"trackers"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("trackers: parse %s: %w", path, err)
	}
	if len(file.Trackers) == 0 {
		return nil, fmt.Errorf("trackers: %s defines no trackers", path)
	}
	if err := Validate(file.Trackers); err != nil {
		return nil, err
	}
	return file.Trackers, nil
}

// IDs returns the descriptor ids in order.
func IDs(descriptors []Descriptor) []string {
	ids := make([]string, len(descriptors))
	for i, d := range descriptors {
		ids[i] = d.ID
	}
	return ids
}

// ByID returns the descriptor with the given id.
func ByID(descriptors []Descriptor, id string) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ratingHighGreen paints 10 green down to 0 dark red.
func ratingHighGreen() []PaletteEntry {
	colors := []string{"#00FF00", "#33FF00", "#66FF00", "#99FF00", "#FFFF00", "#FFCC00", "#FF9900", "#FF6600", "#FF3300", "#FF0000", "#CC0000"}
	out := make([]PaletteEntry, len(colors))
	for i, c := range colors {
		v := 10 - i
		out[i] = PaletteEntry{Value: v, Label: fmt.Sprintf("%d", v), Color: c}
	}
	return out
}

// ratingHighRed is the inverse scale for trackers where high is bad.
func ratingHighRed() []PaletteEntry {
	green := ratingHighGreen()
	out := make([]PaletteEntry, len(green))
	for i, p := range green {
		out[i] = PaletteEntry{Value: p.Value, Label: p.Label, Color: green[len(green)-1-i].Color}
	}
	return out
}

// hoursPalette covers 1h..10h, green to red.
func hoursPalette() []PaletteEntry {
	green := ratingHighGreen()
	out := make([]PaletteEntry, 10)
	for i := 0; i < 10; i++ {
		out[i] = PaletteEntry{Value: i + 1, Label: fmt.Sprintf("%dh", i+1), Color: green[i].Color}
	}
	return out
}

// Defaults returns the built-in descriptor table.
func Defaults() []Descriptor {
	return []Descriptor{
		{ID: "day", Title: "Day Tracker", Description: "Rate how your day felt", Collection: "rateMyDay", Type: TypeRating, ValueKey: "rating", Palette: ratingHighGreen()},
		{ID: "sleep", Title: "Sleep Tracker", Description: "Log nightly sleep quality", Collection: "sleepTracker", Type: TypeRating, ValueKey: "rating", Palette: ratingHighGreen()},
		{ID: "anxiety", Title: "Anxiety Tracker", Description: "Capture anxiety intensity", Collection: "anxietyTracker", Type: TypeRating, ValueKey: "rating", Palette: ratingHighRed()},
		{ID: "stress", Title: "Stress Tracker", Description: "Track daily stress", Collection: "stressTracker", Type: TypeRating, ValueKey: "rating", Palette: ratingHighRed()},
		{ID: "screen", Title: "Screen Time", Description: "Hours spent on screens", Collection: "screenTimeTracker", Type: TypeHours, ValueKey: "screenTime", Palette: hoursPalette()},
		{ID: "mood", Title: "Mood Tracker", Description: "Record overall mood", Collection: "moodTracker", Type: TypeRating, ValueKey: "rating", Palette: ratingHighGreen()},
		{ID: "energy", Title: "Energy Tracker", Description: "Log energy levels", Collection: "trackMyEnergy", Type: TypeRating, ValueKey: "rating", Palette: ratingHighGreen()},
		{ID: "discipline", Title: "Discipline Tracker", Description: "Note discipline consistency", Collection: "trackMyDiscipline", Type: TypeRating, ValueKey: "rating", Palette: ratingHighGreen()},
		{ID: "thoughts", Title: "Thoughts Tracker", Description: "Track intrusive thoughts", Collection: "thoughtsTracker", Type: TypeRating, ValueKey: "rating", Palette: ratingHighGreen()},
	}
}
