package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/pharmint/pkg/models"
)

// DegradedNotice closes every degraded artifact.
const DegradedNotice = "Report generation failed, but analysis was successful."

// Config controls how a Builder renders and stores reports.
type Config struct {
	Format models.ArtifactFormat
	// Dir is where reports are written when Write is set.
	Dir   string
	Write bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Builder renders the final report for a request. It never fails: any
// rendering or write error yields a degraded text artifact.
type Builder struct {
	cfg    Config
	logger *zap.Logger
}

// NewBuilder creates a Builder. An invalid format falls back to markdown.
func NewBuilder(cfg Config, logger *zap.Logger) *Builder {
	if !cfg.Format.Valid() {
		cfg.Format = models.FormatMarkdown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{cfg: cfg, logger: logger}
}

// Finalize implements the orchestrator's finalizer contract.
func (b *Builder) Finalize(ctx context.Context, state *models.RequestState) models.Artifact {
	now := b.cfg.Now()
	art, err := b.build(ctx, state, now)
	if err != nil {
		b.logger.Warn("report generation failed",
			zap.String("request_id", state.ID()),
			zap.String("format", string(b.cfg.Format)),
			zap.Error(err))
		return Degraded(state, now)
	}
	b.logger.Info("report generated",
		zap.String("request_id", state.ID()),
		zap.String("format", string(art.Format)),
		zap.String("path", art.Path),
		zap.Bool("partial", art.Partial))
	return art
}

func (b *Builder) build(ctx context.Context, state *models.RequestState, now time.Time) (models.Artifact, error) {
	doc := NewDocument(state, now)
	art := models.Artifact{
		Format:      b.cfg.Format,
		Summary:     doc.ExecutiveSummary,
		Partial:     doc.Partial,
		GeneratedAt: now,
	}

	var data []byte
	switch b.cfg.Format {
	case models.FormatMarkdown:
		art.Content = doc.Markdown()
		data = []byte(art.Content)
	case models.FormatText:
		art.Content = doc.Text()
		data = []byte(art.Content)
	case models.FormatHTML:
		out, err := doc.HTML()
		if err != nil {
			return models.Artifact{}, err
		}
		art.Content = out
		data = []byte(out)
	case models.FormatXLSX:
		out, err := doc.XLSX()
		if err != nil {
			return models.Artifact{}, err
		}
		art.Content = doc.Text()
		data = out
	default:
		return models.Artifact{}, fmt.Errorf("unsupported report format %q", b.cfg.Format)
	}

	if err := ctx.Err(); err != nil {
		return models.Artifact{}, fmt.Errorf("render report: %w", err)
	}

	if b.cfg.Write {
		path := filepath.Join(b.cfg.Dir, Filename(doc.Subject, now, b.cfg.Format))
		if err := os.MkdirAll(b.cfg.Dir, 0755); err != nil {
			return models.Artifact{}, fmt.Errorf("create report dir: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return models.Artifact{}, fmt.Errorf("write report: %w", err)
		}
		art.Path = path
	}
	return art, nil
}

// Filename is the report file name for subject at t:
// pharma_intelligence_report_<Subject>_<YYYYMMDD_HHMMSS>.<ext>.
func Filename(subject string, t time.Time, format models.ArtifactFormat) string {
	clean := strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(subject)
	clean = truncate(clean, 30, "")
	if clean == "" {
		clean = "Query"
	}
	return fmt.Sprintf("pharma_intelligence_report_%s_%s%s", clean, t.Format("20060102_150405"), format.Extension())
}

// Degraded builds the fallback text artifact used when rendering fails.
func Degraded(state *models.RequestState, now time.Time) models.Artifact {
	content := fmt.Sprintf("Analysis completed for: %s\nTimestamp: %s\n%s",
		state.RawQuery(), now.Format(timeLayout), DegradedNotice)
	return models.Artifact{
		Format:      models.FormatText,
		Content:     content,
		Summary:     DegradedNotice,
		Degraded:    true,
		Partial:     !state.AllCompleted(),
		GeneratedAt: now,
	}
}

// Digest is the per-worker summary block shown to the user after a run.
// Workers appear in worklist order.
func Digest(state *models.RequestState, art models.Artifact) string {
	var parts []string
	seen := make(map[models.WorkerID]bool)
	for _, id := range state.Worklist() {
		if seen[id] {
			continue
		}
		seen[id] = true

		env, ok := state.Result(id)
		switch {
		case !ok:
			parts = append(parts, id.Title()+": Not run")
		case env.Summary != "":
			text := env.Summary
			if id == models.WorkerInternal {
				text = truncate(text, DigestInternalLimit, "...")
			}
			parts = append(parts, id.Title()+": "+text)
		default:
			parts = append(parts, id.Title()+": "+titleStatus(env.Status))
		}
	}

	out := "Analysis completed successfully."
	if len(parts) > 0 {
		out = strings.Join(parts, "\n\n")
	}

	switch {
	case art.Degraded:
		out += "\n\n" + art.Content
	case art.Path != "":
		out += "\n\nReport generated: " + filepath.Base(art.Path)
	default:
		out += "\n\nReport generation completed."
	}
	return out
}

func titleStatus(s models.Status) string {
	if s == "" {
		return "Completed"
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
