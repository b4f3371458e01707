package registry

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFileName is the manifest written under the output root.
const ManifestFileName = "autodox-manifest.json"

// ToolVersions records the external tool versions a build ran with.
type ToolVersions struct {
	Doxygen    string `json:"doxygen,omitempty"`
	Doxysphinx string `json:"doxysphinx,omitempty"`
}

// Manifest is the persisted record of a build's registered outputs.
// ContentHash covers the build-independent parts (outdir, tools, entries);
// two runs over the same configuration carry the same hash.
type Manifest struct {
	BuildID     string       `json:"build_id"`
	Timestamp   time.Time    `json:"timestamp"`
	DurationMS  int64        `json:"duration_ms"`
	Outdir      string       `json:"outdir"`
	Tools       ToolVersions `json:"tools"`
	Entries     []Entry      `json:"entries"`
	ContentHash string       `json:"content_hash"`
}

// NewManifest snapshots the registry into a manifest.
func NewManifest(buildID, outdir string, tools ToolVersions, reg *Registry, duration time.Duration) *Manifest {
	m := &Manifest{
		BuildID:    buildID,
		Timestamp:  time.Now().UTC(),
		DurationMS: duration.Milliseconds(),
		Outdir:     outdir,
		Tools:      tools,
		Entries:    reg.Entries(),
	}
	// json.Marshal of these plain structs cannot fail.
	m.ContentHash, _ = m.Hash()
	return m
}

// ToJSON serializes the manifest to JSON.
func (m *Manifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// WriteFile persists the manifest under the output root.
func (m *Manifest) WriteFile(outputRoot string) (string, error) {
	data, err := m.ToJSON()
	if err != nil {
		return "", err
	}
	path := filepath.Join(outputRoot, ManifestFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// Hash computes a deterministic hash of the manifest's entries and tool
// versions. Timestamps, build IDs, and durations are excluded so identical
// configurations hash identically run to run.
func (m *Manifest) Hash() (string, error) {
	hashInput := struct {
		Outdir  string       `json:"outdir"`
		Tools   ToolVersions `json:"tools"`
		Entries []Entry      `json:"entries"`
	}{
		Outdir:  m.Outdir,
		Tools:   m.Tools,
		Entries: m.Entries,
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}
