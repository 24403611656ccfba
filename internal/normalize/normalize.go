// Package normalize reduces a fetched HTML document to the part that is stable
// across requests, so that hashing it only reacts to real content drift.
package normalize

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// volatileFields are hidden input names that carry per-request anti-forgery tokens.
var volatileFields = map[string]struct{}{
	"_token":             {},
	"csrf":               {},
	"csrf_token":         {},
	"authenticity_token": {},
}

// HTML returns the canonical form of raw:
//   - only the inner content of <body> when the document has one
//   - hidden anti-forgery inputs, comments, <script> and <style> removed
//   - whitespace runs collapsed to one space and trimmed
//
// Markup that survives is copied verbatim from the input.
func HTML(raw string) string {
	var all, body strings.Builder
	seenBody, inBody := false, false
	skip := atom.Atom(0)

	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		// Raw must be copied before Token() reuses the buffer.
		text := string(z.Raw())
		tok := z.Token()

		if skip != 0 {
			if tt == html.EndTagToken && tok.DataAtom == skip {
				skip = 0
			}
			continue
		}

		switch tt {
		case html.CommentToken:
			continue
		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.DataAtom {
			case atom.Body:
				seenBody, inBody = true, true
				continue
			case atom.Script, atom.Style:
				// The tokenizer reads raw text up to the close tag even for "<script/>".
				skip = tok.DataAtom
				continue
			case atom.Input:
				if isVolatileInput(tok.Attr) {
					continue
				}
			}
		case html.EndTagToken:
			if tok.DataAtom == atom.Body {
				inBody = false
				continue
			}
		}

		all.WriteString(text)
		if inBody {
			body.WriteString(text)
		}
	}

	out := all.String()
	if seenBody {
		out = body.String()
	}
	return collapseSpace(out)
}

func isVolatileInput(attrs []html.Attribute) bool {
	hidden, volatile := false, false
	for _, a := range attrs {
		switch a.Key {
		case "type":
			hidden = strings.EqualFold(strings.TrimSpace(a.Val), "hidden")
		case "name":
			_, volatile = volatileFields[strings.ToLower(a.Val)]
		}
	}
	return hidden && volatile
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
