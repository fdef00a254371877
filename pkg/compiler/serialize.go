package compiler

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const bannerWidth = 60

// Marshal renders a snapshot as commented YAML. Comments and the per-route
// `source` field are informational; DecodeSnapshot ignores them.
func Marshal(s *Snapshot) ([]byte, error) {
	meta, err := metaNode(s)
	if err != nil {
		return nil, err
	}

	routesNode := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	var lastSource string
	for i, r := range s.Routes {
		var n yaml.Node
		if err := n.Encode(NewEntry(r)); err != nil {
			return nil, fmt.Errorf("encoding route %s %s: %w", r.Method, r.Path, err)
		}
		if i == 0 || r.Source != lastSource {
			n.HeadComment = sourceBanner(r.Source, s.Meta.IncludedBy(r.Source))
			lastSource = r.Source
		}
		routesNode.Content = append(routesNode.Content, &n)
	}

	root := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			scalar("_meta"), meta,
			scalar("routes"), routesNode,
		},
	}
	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: header(s),
		Content:     []*yaml.Node{root},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding compiled routes: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// metaNode builds `_meta` with source files in discovery order.
func metaNode(s *Snapshot) (*yaml.Node, error) {
	files := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range orderedFiles(s) {
		var v yaml.Node
		if err := v.Encode(s.Meta.SourceFiles[f]); err != nil {
			return nil, err
		}
		files.Content = append(files.Content, scalar(f), &v)
	}

	deps := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, parent := range orderedParents(s) {
		var v yaml.Node
		if err := v.Encode(s.Meta.Dependencies[parent]); err != nil {
			return nil, err
		}
		deps.Content = append(deps.Content, scalar(parent), &v)
	}

	var generated yaml.Node
	if err := generated.Encode(s.Meta.GeneratedAt); err != nil {
		return nil, err
	}

	meta := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			scalar("generated_at"), &generated,
			scalar("source_files"), files,
			scalar("dependencies"), deps,
			scalar("checksum"), scalar(s.Meta.Checksum),
		},
	}
	return meta, nil
}

// orderedFiles returns the source files in discovery order, then any
// remaining recorded files sorted.
func orderedFiles(s *Snapshot) []string {
	seen := make(map[string]bool, len(s.Meta.SourceFiles))
	var out []string
	for _, f := range s.Files {
		if _, ok := s.Meta.SourceFiles[f]; ok && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	var rest []string
	for f := range s.Meta.SourceFiles {
		if !seen[f] {
			rest = append(rest, f)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

func orderedParents(s *Snapshot) []string {
	var out []string
	for _, f := range orderedFiles(s) {
		if _, ok := s.Meta.Dependencies[f]; ok {
			out = append(out, f)
		}
	}
	var rest []string
	for parent := range s.Meta.Dependencies {
		if !slices.Contains(out, parent) {
			rest = append(rest, parent)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

func header(s *Snapshot) string {
	lines := []string{
		"Auto-generated route definitions",
		"Generated: " + s.Meta.GeneratedAt.Format(time.DateTime),
		"",
		"DO NOT EDIT THIS FILE DIRECTLY",
		"Edit the source YAML files and run: roost routes compile",
		"",
		"Source files compiled:",
	}
	for _, f := range orderedFiles(s) {
		lines = append(lines, fmt.Sprintf("  - %s (modified: %s)", f, s.Meta.SourceFiles[f].Format(time.DateTime)))
	}
	return comment(lines...)
}

func sourceBanner(source, includedBy string) string {
	rule := strings.Repeat("=", bannerWidth)
	lines := []string{rule, "Routes from: " + source}
	if includedBy != "" {
		lines = append(lines, "Included by: "+includedBy)
	}
	lines = append(lines, rule)
	return comment(lines...)
}

func comment(lines ...string) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if l == "" {
			out[i] = "#"
		} else {
			out[i] = "# " + l
		}
	}
	return strings.Join(out, "\n")
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
