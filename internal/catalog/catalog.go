/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package catalog holds the static list of ambient tracks the mixer knows.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrDuplicateID = errors.New("duplicate track id")
	ErrEmptyID     = errors.New("empty track id")
	ErrEmpty       = errors.New("catalog has no tracks")
)

// TrackDescriptor describes one looping ambient sound.
type TrackDescriptor struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	AudioRef   string `json:"audio_ref"`
	IdleIcon   string `json:"idle_icon"`
	ActiveIcon string `json:"active_icon"`
}

// Catalog is immutable once built. The zero value is an empty catalog.
type Catalog struct {
	tracks []TrackDescriptor
	index  map[string]int
}

// New validates the descriptors and builds a catalog preserving their order.
func New(tracks []TrackDescriptor) (*Catalog, error) {
	if len(tracks) == 0 {
		return nil, ErrEmpty
	}
	c := &Catalog{
		tracks: make([]TrackDescriptor, len(tracks)),
		index:  make(map[string]int, len(tracks)),
	}
	for i, t := range tracks {
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			return nil, fmt.Errorf("track #%d: %w", i+1, ErrEmptyID)
		}
		if _, dup := c.index[t.ID]; dup {
			return nil, fmt.Errorf("%q: %w", t.ID, ErrDuplicateID)
		}
		if t.Label == "" {
			t.Label = labelFromID(t.ID)
		}
		c.tracks[i] = t
		c.index[t.ID] = i
	}
	return c, nil
}

// Load reads a JSON array of track descriptors.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var tracks []TrackDescriptor
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return New(tracks)
}

// Save writes the catalog as indented JSON, the format Load reads.
func (c *Catalog) Save(path string) error {
	b, err := json.MarshalIndent(c.tracks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0644)
}

// Tracks returns a copy of the descriptors in catalog order.
func (c *Catalog) Tracks() []TrackDescriptor {
	out := make([]TrackDescriptor, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// IDs returns the track ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.tracks))
	for i, t := range c.tracks {
		ids[i] = t.ID
	}
	return ids
}

func (c *Catalog) Len() int { return len(c.tracks) }

// Lookup finds a track by id.
func (c *Catalog) Lookup(id string) (TrackDescriptor, bool) {
	i, ok := c.index[id]
	if !ok {
		return TrackDescriptor{}, false
	}
	return c.tracks[i], true
}

func labelFromID(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
