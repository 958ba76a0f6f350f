// Package moderation extracts reviewable text from post bodies and asks an
// external classifier whether it breaks content policy.
package moderation

import (
	"bytes"
	"encoding/json"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md     = goldmark.New(goldmark.WithExtensions(extension.GFM))
	strip  = bluemonday.StrictPolicy()
	inline = newInlinePolicy()
)

func newInlinePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return p
}

// Block is one editor block. Data keeps fields this package does not know
// about so sanitizing round-trips them.
type Block struct {
	ID   string                 `json:"id,omitempty"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Document is the block-structured body the editor produces.
type Document struct {
	Time    int64   `json:"time,omitempty"`
	Blocks  []Block `json:"blocks"`
	Version string  `json:"version,omitempty"`
}

// ParseDocument decodes a block document. Bodies that are not block JSON
// are treated as markdown by the callers.
func ParseDocument(content string) (*Document, bool) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var doc Document
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

// HasContent reports whether a body carries at least one block or any
// markdown text.
func HasContent(content string) bool {
	if doc, ok := ParseDocument(content); ok {
		return len(doc.Blocks) > 0
	}
	return strings.TrimSpace(content) != ""
}

// ExtractText flattens a post body to plain text for classification.
func ExtractText(content string) string {
	doc, ok := ParseDocument(content)
	if !ok {
		return markdownText(content)
	}
	lines := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		if s := blockText(b); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

func blockText(b Block) string {
	switch b.Type {
	case "paragraph", "header":
		return plain(str(b.Data["text"]))
	case "list":
		items, _ := b.Data["items"].([]interface{})
		out := make([]string, 0, len(items))
		for _, it := range items {
			switch v := it.(type) {
			case string:
				out = append(out, plain(v))
			case map[string]interface{}:
				out = append(out, plain(str(v["content"])))
			}
		}
		return strings.Join(out, "\n")
	case "quote":
		text := plain(str(b.Data["text"]))
		if c := plain(str(b.Data["caption"])); c != "" {
			return text + " - " + c
		}
		return text
	case "code":
		return str(b.Data["code"])
	case "embed":
		if c := plain(str(b.Data["caption"])); c != "" {
			return c
		}
		return str(b.Data["source"])
	}
	return ""
}

func markdownText(src string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return strings.TrimSpace(src)
	}
	return plain(buf.String())
}

func plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strip.Sanitize(s)))
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// SanitizeContent strips unsafe markup from the inline HTML an editor
// stores in block text. Markdown bodies are returned unchanged; they are
// sanitized when rendered.
func SanitizeContent(content string) (string, error) {
	doc, ok := ParseDocument(content)
	if !ok {
		return content, nil
	}
	for i := range doc.Blocks {
		data := doc.Blocks[i].Data
		for _, key := range []string{"text", "caption"} {
			if s, ok := data[key].(string); ok {
				data[key] = inline.Sanitize(s)
			}
		}
		if items, ok := data["items"].([]interface{}); ok {
			for j, it := range items {
				if s, ok := it.(string); ok {
					items[j] = inline.Sanitize(s)
				}
			}
		}
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// RenderMarkdown converts a markdown body to sanitized HTML.
func RenderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return inline.Sanitize(src)
	}
	return inline.Sanitize(buf.String())
}
