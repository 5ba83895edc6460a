// Package world loads a game world from a content directory: a
// world.toml manifest describing locations, characters, quantum
// objects, and the launch gate, plus one markdown file per knowledge
// entry with TOML frontmatter between +++ fences. The engine treats
// everything here as read-only input fixed at startup.
package world

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// ErrNoManifest is returned when the content dir has no world.toml.
var ErrNoManifest = errors.New("world.toml not found")

// Manifest is the parsed world.toml.
type Manifest struct {
	Title          string         `toml:"title"`
	Start          string         `toml:"start"`
	Finale         string         `toml:"finale"`
	ActionsPerLoop int            `toml:"actions_per_loop"`
	Launch         LaunchSpec     `toml:"launch"`
	Locations      []LocationSpec `toml:"locations"`
	NPCs           []NPCSpec      `toml:"npcs"`
	Quantum        []QuantumSpec  `toml:"quantum"`
}

// LaunchSpec is the ship authorization gate: the code the player must
// type and the entries they must have discovered first.
type LaunchSpec struct {
	Code     string   `toml:"code"`
	Requires []string `toml:"requires"`
}

// LocationSpec describes one place the player can stand.
type LocationSpec struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	// Ship marks locations that need the unlocked ship to reach.
	Ship bool `toml:"ship"`
	// Via restricts travel to on-foot arrival from one location.
	Via string `toml:"via"`
	// Frequency is the radio signal pointing at this location.
	Frequency string `toml:"frequency"`
	// TunedOnly hides the location until its frequency is tuned in the
	// current loop.
	TunedOnly bool `toml:"tuned_only"`
	// OpenAt/CloseAt bound the physics window in action-counter ticks.
	// Standing inside when the window closes is death.
	OpenAt  int `toml:"open_at"`
	CloseAt int `toml:"close_at"`
	// WitnessEntry is discovered by watching this location's window
	// close from its via parent.
	WitnessEntry string `toml:"witness_entry"`
}

// NPCSpec describes one character and their topics.
type NPCSpec struct {
	ID       string      `toml:"id"`
	Name     string      `toml:"name"`
	Location string      `toml:"location"`
	Topics   []TopicSpec `toml:"topics"`
}

// TopicSpec is one conversation topic. At most one unlock style may be
// set: a discovered-entry count or a required entry list.
type TopicSpec struct {
	ID              string   `toml:"id"`
	Title           string   `toml:"title"`
	RequiresCount   int      `toml:"requires_count"`
	RequiresEntries []string `toml:"requires_entries"`
	Body            string   `toml:"body"`
}

// QuantumSpec describes a superposed object guarding a quantum entry.
type QuantumSpec struct {
	ID       string   `toml:"id"`
	Entry    string   `toml:"entry"`
	Location string   `toml:"location"`
	States   []string `toml:"states"`
	Key      string   `toml:"key"`
}

// EntrySpec is one parsed entries/*.md file.
type EntrySpec struct {
	ID       string   `toml:"id"`
	Title    string   `toml:"title"`
	Location string   `toml:"location"`
	Requires []string `toml:"requires"`
	Quantum  bool     `toml:"quantum"`

	Body       string `toml:"-"`
	SourceFile string `toml:"-"`
}

// World is a fully loaded content directory.
type World struct {
	Dir      string
	Manifest Manifest
	Entries  []EntrySpec
}

// Load reads a world directory, parsing world.toml and every
// entries/*.md file.
func Load(dir string) (*World, error) {
	manifestPath := filepath.Join(dir, "world.toml")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNoManifest, dir)
		}
		return nil, fmt.Errorf("reading world.toml: %w", err)
	}

	var manifest Manifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing world.toml: %w", err)
	}

	entriesDir := filepath.Join(dir, "entries")
	files, err := os.ReadDir(entriesDir)
	if err != nil {
		return nil, fmt.Errorf("reading entries directory: %w", err)
	}

	var entries []EntrySpec
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		entry, err := parseEntryFile(filepath.Join(entriesDir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Name(), err)
		}
		entry.SourceFile = f.Name()
		entries = append(entries, entry)
	}

	return &World{
		Dir:      dir,
		Manifest: manifest,
		Entries:  entries,
	}, nil
}

// parseEntryFile reads a markdown file with +++ TOML frontmatter.
func parseEntryFile(path string) (EntrySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EntrySpec{}, err
	}

	frontmatter, body, err := splitFrontmatter(string(data))
	if err != nil {
		return EntrySpec{}, err
	}

	var entry EntrySpec
	if err := toml.Unmarshal([]byte(frontmatter), &entry); err != nil {
		return EntrySpec{}, fmt.Errorf("parsing TOML frontmatter: %w", err)
	}
	entry.Body = strings.TrimSpace(body)
	return entry, nil
}

// splitFrontmatter splits content on +++ delimiters.
// Expected format:
//
//	+++
//	<TOML>
//	+++
//	<body>
func splitFrontmatter(content string) (string, string, error) {
	const delim = "+++"

	content = strings.TrimLeft(content, " \t\r\n")

	if !strings.HasPrefix(content, delim) {
		return "", "", fmt.Errorf("file does not start with +++ frontmatter delimiter")
	}

	rest := content[len(delim):]
	idx := strings.Index(rest, delim)
	if idx < 0 {
		return "", "", fmt.Errorf("missing closing +++ frontmatter delimiter")
	}

	return rest[:idx], rest[idx+len(delim):], nil
}

// Location returns the location spec with the given id.
func (w *World) Location(id string) (*LocationSpec, bool) {
	for i := range w.Manifest.Locations {
		if w.Manifest.Locations[i].ID == id {
			return &w.Manifest.Locations[i], true
		}
	}
	return nil, false
}

// LocationByFrequency returns the location a radio frequency points at.
func (w *World) LocationByFrequency(freq string) (*LocationSpec, bool) {
	for i := range w.Manifest.Locations {
		if l := &w.Manifest.Locations[i]; l.Frequency != "" && l.Frequency == freq {
			return l, true
		}
	}
	return nil, false
}
