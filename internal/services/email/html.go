// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// messageHTML lays out a plain text body as HTML, one paragraph per block of
// text separated by a blank line.
func messageHTML(subject, body string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`)
		b.WriteString(templ.EscapeString(subject))
		b.WriteString(`</title></head><body style="font-family: sans-serif; line-height: 1.5;">`)
		for _, para := range paragraphs(body) {
			b.WriteString("<p>")
			for i, line := range para {
				if i > 0 {
					b.WriteString("<br>")
				}
				b.WriteString(templ.EscapeString(line))
			}
			b.WriteString("</p>")
		}
		b.WriteString(`</body></html>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func paragraphs(body string) [][]string {
	var out [][]string
	var cur []string
	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// RenderHTML renders the HTML alternative for a plain text body.
func RenderHTML(ctx context.Context, subject, body string) (string, error) {
	var buf bytes.Buffer
	if err := messageHTML(subject, body).Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
