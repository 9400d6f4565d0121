// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page’s
// <head> element.  It is scoped to a single render call.  Handlers set the
// title and push tags, then the layout template decides where to emit each
// slice.
//
// Features
// --------
//   - SetTitle    – single <title> tag (last call wins).
//   - Meta, Link, Script – literal tags, deduplicated.
//   - Render helpers return template.HTML for the layout.
package head

import (
	"html/template"
	"strings"
)

// Builder is not safe for concurrent use; one render owns one Builder.
type Builder struct {
	title   string
	metas   []string
	links   []string
	scripts []string
	seen    map[string]struct{}
}

// New returns a Builder seeded with the charset and viewport tags every
// page needs.
func New() *Builder {
	b := &Builder{seen: make(map[string]struct{})}
	b.Meta(`<meta charset="utf-8">`)
	b.Meta(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	return b
}

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) { b.title = t }

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// Meta and Link take trusted, pre-escaped markup.
func (b *Builder) Meta(tag string) { b.add("meta:"+tag, &b.metas, tag) }
func (b *Builder) Link(tag string) { b.add("link:"+tag, &b.links, tag) }

// Script takes a full <script> tag.  Only external sources pass the
// self-only CSP.
func (b *Builder) Script(tag string) { b.add("script:"+tag, &b.scripts, tag) }

func (b *Builder) add(key string, tgt *[]string, tag string) {
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	*tgt = append(*tgt, tag)
}

func (b *Builder) Metas() template.HTML { return concat(b.metas) }
func (b *Builder) Links() template.HTML { return concat(b.links) }
func (b *Builder) Scripts() template.HTML { return concat(b.scripts) }

// concat joins pre-escaped tags with newlines.
func concat(sl []string) template.HTML {
	return template.HTML(strings.Join(sl, "\n"))
}
