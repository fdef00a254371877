package compiler

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/simonhull/firebird-suite/roost/pkg/routes"
	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"
)

// Snapshot is the result of a compile pass.
type Snapshot struct {
	Meta   Metadata
	Routes []routes.Record
	// Files lists Meta.SourceFiles in discovery order. Snapshots read back
	// from disk list them sorted.
	Files []string
}

// Metadata is the `_meta` section of a compiled snapshot.
type Metadata struct {
	GeneratedAt  time.Time            `yaml:"generated_at"`
	SourceFiles  map[string]time.Time `yaml:"source_files"`
	Dependencies map[string][]string  `yaml:"dependencies"`
	Checksum     string               `yaml:"checksum,omitempty"`
}

// IncludedBy returns the first recorded parent of file, or "" for an
// entry file.
func (m Metadata) IncludedBy(file string) string {
	parents := make([]string, 0, len(m.Dependencies))
	for parent, children := range m.Dependencies {
		if slices.Contains(children, file) {
			parents = append(parents, parent)
		}
	}
	if len(parents) == 0 {
		return ""
	}
	slices.Sort(parents)
	return parents[0]
}

// Entry is one route as stored in a compiled snapshot.
type Entry struct {
	Method     string         `yaml:"method"`
	Path       string         `yaml:"path"`
	Handler    string         `yaml:"handler"`
	Middleware []string       `yaml:"middleware"`
	Domain     *string        `yaml:"domain"`
	Options    map[string]any `yaml:"options"`
	Name       *string        `yaml:"name"`
	Source     string         `yaml:"source,omitempty"`
}

// NewEntry converts a record to its stored form.
func NewEntry(r routes.Record) Entry {
	e := Entry{
		Method:     string(r.Method),
		Path:       r.Path,
		Handler:    r.Handler,
		Middleware: r.Middleware,
		Options:    r.Options,
		Source:     r.Source,
	}
	if e.Middleware == nil {
		e.Middleware = []string{}
	}
	if e.Options == nil {
		e.Options = map[string]any{}
	}
	if r.Domain != "" {
		e.Domain = &r.Domain
	}
	if r.Name != "" {
		e.Name = &r.Name
	}
	return e
}

// Record converts the entry back into a route record.
func (e Entry) Record() (routes.Record, error) {
	method, ok := routes.ParseMethod(e.Method)
	if !ok {
		return routes.Record{}, fmt.Errorf("route %s: unsupported method %q", e.Path, e.Method)
	}
	if e.Handler == "" {
		return routes.Record{}, fmt.Errorf("route %s %s: missing handler", e.Method, e.Path)
	}

	r := routes.Record{
		Method:     method,
		Path:       routes.NormalizePath(e.Path),
		Handler:    e.Handler,
		Middleware: slices.Clone(e.Middleware),
		Options:    e.Options,
		Source:     e.Source,
	}
	if r.Middleware == nil {
		r.Middleware = []string{}
	}
	if r.Options == nil {
		r.Options = map[string]any{}
	}
	if e.Domain != nil {
		r.Domain = *e.Domain
	}
	if e.Name != nil {
		r.Name = *e.Name
	}
	return r, nil
}

// Checksum hashes the semantic content of recs. Provenance is excluded,
// so moving a route between files does not change the checksum.
func Checksum(recs []routes.Record) string {
	entries := make([]Entry, len(recs))
	for i, r := range recs {
		entries[i] = NewEntry(r)
		entries[i].Source = ""
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

// ChecksumValid reports whether the routes still match the recorded
// checksum. Snapshots without a checksum are reported as valid.
func (s *Snapshot) ChecksumValid() bool {
	if s.Meta.Checksum == "" {
		return true
	}
	return s.Meta.Checksum == Checksum(s.Routes)
}

type snapshotFile struct {
	Meta   *Metadata `yaml:"_meta"`
	Routes []Entry   `yaml:"routes"`
}

// DecodeSnapshot parses a compiled snapshot. A snapshot without a `_meta`
// section decodes with zero Metadata.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding compiled routes: %w", err)
	}

	snap := &Snapshot{Routes: make([]routes.Record, 0, len(file.Routes))}
	if file.Meta != nil {
		snap.Meta = *file.Meta
	}
	for i, e := range file.Routes {
		r, err := e.Record()
		if err != nil {
			return nil, fmt.Errorf("decoding compiled route %d: %w", i, err)
		}
		snap.Routes = append(snap.Routes, r)
	}

	for f := range snap.Meta.SourceFiles {
		snap.Files = append(snap.Files, f)
	}
	slices.Sort(snap.Files)

	return snap, nil
}

// ReadSnapshot reads and decodes a compiled snapshot from disk. A missing
// file returns an error satisfying errors.Is(err, fs.ErrNotExist).
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
