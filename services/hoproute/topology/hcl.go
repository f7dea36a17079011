// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package topology

import (
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

func parseHCL(data []byte, filename string) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	doc := &Document{}
	if diags := gohcl.DecodeBody(file.Body, nil, doc); diags.HasErrors() {
		return nil, diags
	}
	return doc, nil
}

func encodeHCL(doc *Document) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	if doc.Name != "" {
		body.SetAttributeValue("name", cty.StringVal(doc.Name))
		body.AppendNewline()
	}

	for _, n := range doc.Nodes {
		block := body.AppendNewBlock("node", []string{n.ID})
		if n.X != nil && n.Y != nil {
			block.Body().SetAttributeValue("x", cty.NumberIntVal(int64(*n.X)))
			block.Body().SetAttributeValue("y", cty.NumberIntVal(int64(*n.Y)))
		}
	}

	for _, e := range doc.Edges {
		body.AppendNewline()
		block := body.AppendNewBlock("edge", nil)
		block.Body().SetAttributeValue("from", cty.StringVal(e.From))
		block.Body().SetAttributeValue("to", cty.StringVal(e.To))
	}

	return f.Bytes()
}
