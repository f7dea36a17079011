// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package topology reads and writes declarative graph documents.
//
// A document lists nodes (with optional positions) and undirected edges.
// It can be written in YAML or HCL:
//
//	# topology.yaml
//	name: campus
//	nodes:
//	  - id: A
//	    x: 10
//	    y: 20
//	  - id: B
//	edges:
//	  - from: A
//	    to: B
//
//	# topology.hcl
//	name = "campus"
//	node "A" {
//	  x = 10
//	  y = 20
//	}
//	node "B" {}
//	edge {
//	  from = "A"
//	  to   = "B"
//	}
//
// Apply replays a document into a graph.Graph through its normal mutation
// API, so every graph invariant holds for loaded topologies too.
package topology

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for document handling.
var (
	// ErrUnsupportedFormat is returned for an unknown document format.
	ErrUnsupportedFormat = errors.New("unsupported topology format")

	// ErrInvalidDocument is returned when a document fails validation.
	ErrInvalidDocument = errors.New("invalid topology document")
)

// docValidate validates documents. Safe for concurrent use.
var docValidate = validator.New()

// Format identifies a document encoding.
type Format string

const (
	// FormatYAML is YAML (JSON is accepted as a YAML subset).
	FormatYAML Format = "yaml"

	// FormatHCL is HashiCorp Configuration Language.
	FormatHCL Format = "hcl"
)

// ParseFormat converts a user-supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml", "json":
		return FormatYAML, nil
	case "hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatFromPath picks a Format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, path)
	}
	return ParseFormat(ext)
}

// Document is a declarative topology.
type Document struct {
	// Name is an optional label for the topology.
	Name string `json:"name,omitempty" yaml:"name,omitempty" hcl:"name,optional"`

	// Nodes are inserted in order, which fixes node iteration order.
	Nodes []NodeSpec `json:"nodes" yaml:"nodes" hcl:"node,block" validate:"dive"`

	// Edges are inserted in order, which fixes neighbor iteration order.
	Edges []EdgeSpec `json:"edges" yaml:"edges" hcl:"edge,block" validate:"dive"`
}

// NodeSpec declares one node.
//
// X and Y must be given together or not at all.
type NodeSpec struct {
	ID string `json:"id" yaml:"id" hcl:"id,label" validate:"required"`
	X  *int   `json:"x,omitempty" yaml:"x,omitempty" hcl:"x,optional" validate:"required_with=Y"`
	Y  *int   `json:"y,omitempty" yaml:"y,omitempty" hcl:"y,optional" validate:"required_with=X"`
}

// EdgeSpec declares one undirected edge.
type EdgeSpec struct {
	From string `json:"from" yaml:"from" hcl:"from" validate:"required"`
	To   string `json:"to" yaml:"to" hcl:"to" validate:"required"`
}

// Validate checks the document's structural tags.
//
// Validation only catches malformed documents. Semantic problems such as
// self-loops or edges to undeclared nodes are left for Apply, which skips
// them softly and reports each one.
func (d *Document) Validate() error {
	if err := docValidate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// Load reads, decodes, and validates a document file.
//
// The format is chosen from the file extension.
func Load(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology %s: %w", path, err)
	}

	return Parse(data, filepath.Base(path), format)
}

// Parse decodes and validates a document.
//
// Inputs:
//
//	data - Encoded document.
//	filename - Used only in diagnostics.
//	format - Encoding of data.
func Parse(data []byte, filename string, format Format) (*Document, error) {
	var (
		doc *Document
		err error
	)

	switch format {
	case FormatYAML:
		doc, err = parseYAML(data)
	case FormatHCL:
		doc, err = parseHCL(data, filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrInvalidDocument, filename, err)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func parseYAML(data []byte) (*Document, error) {
	doc := &Document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Encode serializes a document.
func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatHCL:
		return encodeHCL(doc), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
