// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command hoproute finds shortest hop paths in undirected graphs.
//
// Usage:
//
//	hoproute path -f topology.yaml A C
//	hoproute render -f topology.hcl --format dot --path A,C | dot -Tsvg > g.svg
//	hoproute serve --config hoproute.yaml
//
// Example requests against a running server:
//
//	# Create a session and load a topology
//	curl -X POST http://localhost:8090/v1/hoproute/sessions -d '{"name":"lab"}'
//
//	# Find a path
//	curl -X POST http://localhost:8090/v1/hoproute/sessions/$ID/path \
//	  -d '{"source":"A","destination":"C"}'
package main

import (
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
