package models

import "time"

// ArtifactFormat is the rendering of a finalized report.
type ArtifactFormat string

const (
	FormatMarkdown ArtifactFormat = "markdown"
	FormatText     ArtifactFormat = "text"
	FormatHTML     ArtifactFormat = "html"
	FormatXLSX     ArtifactFormat = "xlsx"
)

// Valid returns true if the format is a known value.
func (f ArtifactFormat) Valid() bool {
	switch f {
	case FormatMarkdown, FormatText, FormatHTML, FormatXLSX:
		return true
	default:
		return false
	}
}

// Extension returns the file extension used when the artifact is written to disk.
func (f ArtifactFormat) Extension() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatXLSX:
		return ".xlsx"
	case FormatText:
		return ".txt"
	default:
		return ".md"
	}
}

// Artifact is what finalization hands back to the caller.
type Artifact struct {
	// Format is the rendering actually produced. A degraded artifact is always text.
	Format ArtifactFormat `json:"format"`
	// Path is where the artifact was written, empty if it was not written.
	Path string `json:"path,omitempty"`
	// Content is the textual rendering. For xlsx it is the plain-text
	// rendering of the same document.
	Content string `json:"content,omitempty"`
	// Summary is a one-paragraph executive summary.
	Summary string `json:"summary"`
	// Degraded is set when report generation failed and a text fallback was produced.
	Degraded bool `json:"degraded"`
	// Partial is set when the run aborted before every worker completed.
	Partial bool `json:"partial"`
	// GeneratedAt is when finalization ran.
	GeneratedAt time.Time `json:"generated_at"`
}
