package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/mtlxport/pkg/mtlx"
	"github.com/matzehuels/mtlxport/pkg/render"
)

// Render produces the requested artifacts for doc. The DOT source is built
// once and shared by the dot and svg formats.
func Render(ctx context.Context, doc *mtlx.Document, formats []string, detailed bool) (map[string][]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document to render")
	}
	artifacts := make(map[string][]byte, len(formats))
	var dot string

	for _, format := range formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatMTLX:
			data, err = doc.Bytes()
		case FormatJSON:
			var buf bytes.Buffer
			err = doc.WriteJSON(&buf)
			data = buf.Bytes()
		case FormatDOT, FormatSVG:
			if dot == "" {
				dot = render.ToDOT(doc, render.Options{Detailed: detailed})
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = render.RenderSVG(ctx, dot)
			}
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
