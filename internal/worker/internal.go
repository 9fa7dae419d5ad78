package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ShayCichocki/pharmint/internal/catalog"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

// InternalSummaryLimit caps the document excerpt used as the summary.
const InternalSummaryLimit = 2000

// readableExts are the attachment types the internal worker can read.
var readableExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	"":          true,
}

// Internal summarizes an internal document: the request attachment when
// present, otherwise the catalog's notes for the subject or category.
type Internal struct {
	src catalog.Source
}

// NewInternal creates the internal knowledge worker.
func NewInternal(src catalog.Source) *Internal {
	return &Internal{src: src}
}

func (w *Internal) ID() models.WorkerID { return models.WorkerInternal }

// Invoke implements Worker.
func (w *Internal) Invoke(ctx context.Context, snap models.Snapshot) (models.ResultEnvelope, error) {
	if snap.AttachmentPath != "" {
		return w.fromAttachment(snap.AttachmentPath), nil
	}
	return w.fromCatalog(ctx, snap), nil
}

func (w *Internal) fromAttachment(path string) models.ResultEnvelope {
	ext := strings.ToLower(filepath.Ext(path))
	if !readableExts[ext] {
		return models.Failure(fmt.Sprintf("Unsupported document type %q: %s", ext, path),
			map[string]any{"key_sections": []any{}})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Failure(fmt.Sprintf("Error reading document: %v", err),
			map[string]any{"key_sections": []any{}})
	}
	markdown := ext != ".txt"
	return digestDocument("attachment", filepath.Base(path), string(data), markdown)
}

func (w *Internal) fromCatalog(ctx context.Context, snap models.Snapshot) models.ResultEnvelope {
	keys := snap.SearchKeys(models.FieldSubject, models.FieldCategory)
	rec, _, found, err := lookupFirst(ctx, w.src, catalog.TableInternal, keys)
	if err != nil {
		return models.Failure(fmt.Sprintf("Error fetching internal documents: %v", err),
			map[string]any{"key_sections": []any{}})
	}
	body, _ := rec["text"].(string)
	if !found || body == "" {
		key := strings.Join(keys, ", ")
		if key == "" {
			key = "this request"
		}
		return models.Failure("No internal documents found for "+key,
			map[string]any{"key_sections": []any{}})
	}
	title, _ := rec["title"].(string)
	return digestDocument("catalog", title, body, true)
}

// digestDocument builds the success envelope for a document body.
func digestDocument(source, title, body string, markdown bool) models.ResultEnvelope {
	lower := strings.ToLower(body)
	sections := []any{}
	if strings.Contains(lower, "strategy") {
		sections = append(sections, "Strategy discussion found")
	}
	if strings.Contains(lower, "market") {
		sections = append(sections, "Market insights found")
	}
	if strings.Contains(lower, "clinical") {
		sections = append(sections, "Clinical data found")
	}

	payload := map[string]any{
		"source":            source,
		"key_sections":      sections,
		"full_text_length":  utf8.RuneCountInString(body),
		"document_headings": []any{},
	}
	if title != "" {
		payload["title"] = title
	}
	if markdown {
		var headings []any
		for _, h := range Headings([]byte(body)) {
			headings = append(headings, h)
		}
		if headings != nil {
			payload["document_headings"] = headings
		}
	}

	summary := truncateRunes(body, InternalSummaryLimit)
	if strings.TrimSpace(summary) == "" {
		summary = "Document is empty."
	}
	return models.Success(summary, payload)
}

// Headings returns the text of every markdown heading in src, in order.
func Headings(src []byte) []string {
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	var out []string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				b.Write(t.Segment.Value(src))
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
