package worker

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/pharmint/internal/catalog"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

// NewMarket creates the market-size worker.
func NewMarket(src catalog.Source) *Lookup {
	return &Lookup{
		id:     models.WorkerMarket,
		src:    src,
		table:  catalog.TableMarket,
		fields: []models.EntityField{models.FieldSubject, models.FieldCategory, models.FieldCondition, models.FieldQuery},
		defaults: func(_ string, snap models.Snapshot) catalog.Record {
			area := snap.Entities.Category
			if area == "" {
				area = "Unknown"
			}
			return catalog.Record{
				"market_size_millions_usd": 0,
				"growth_rate_cagr_percent": 0,
				"competitors":              []any{},
				"therapy_area":             area,
				"market_trend":             "stable",
				"volume_shifts":            map[string]any{},
				"geographic_distribution":  map[string]any{},
			}
		},
		summarize: func(key string, p map[string]any) string {
			return fmt.Sprintf("Market analysis for %s: Market size $%sM, Growth rate %s%% CAGR, %d major competitors identified.",
				key, number(p, "market_size_millions_usd"), number(p, "growth_rate_cagr_percent"), len(list(p, "competitors")))
		},
	}
}

// NewTrade creates the export/import worker.
func NewTrade(src catalog.Source) *Lookup {
	return &Lookup{
		id:     models.WorkerTrade,
		src:    src,
		table:  catalog.TableTrade,
		fields: []models.EntityField{models.FieldSubject, models.FieldQuery},
		defaults: func(string, models.Snapshot) catalog.Record {
			return catalog.Record{
				"export_volume_kg":        0,
				"import_volume_kg":        0,
				"net_trade_balance":       0,
				"top_export_destinations": []any{},
				"top_import_sources":      []any{},
				"trade_trend":             "stable",
				"api_availability":        "unknown",
				"formulation_trade":       map[string]any{},
			}
		},
		summarize: func(key string, p map[string]any) string {
			return fmt.Sprintf("Trade analysis for %s: Export %skg, Import %skg. Top destinations: %s",
				key, number(p, "export_volume_kg"), number(p, "import_volume_kg"),
				strings.Join(head(list(p, "top_export_destinations"), 3), ", "))
		},
	}
}

// NewPatent creates the patent landscape worker. It derives fto_status:
// restricted when any active patent exists, else the record's
// freedom_to_operate.
func NewPatent(src catalog.Source) *Lookup {
	return &Lookup{
		id:     models.WorkerPatent,
		src:    src,
		table:  catalog.TablePatent,
		fields: []models.EntityField{models.FieldSubject, models.FieldCategory, models.FieldQuery},
		defaults: func(string, models.Snapshot) catalog.Record {
			return catalog.Record{
				"active_patents":         []any{},
				"patent_expiry_timeline": []any{},
				"freedom_to_operate":     "unknown",
				"fto_risks":              []any{},
				"innovation_trends":      []any{},
				"key_patents":            []any{},
				"competitive_filings":    map[string]any{},
			}
		},
		decorate: func(p map[string]any) {
			status, _ := p["freedom_to_operate"].(string)
			if status == "" {
				status = "unknown"
			}
			if len(list(p, "active_patents")) > 0 {
				status = "restricted"
			}
			p["fto_status"] = status
		},
		summarize: func(key string, p map[string]any) string {
			return fmt.Sprintf("Patent analysis for %s: %d active patents, FTO status: %s. Key expiries: %d patents expiring soon.",
				key, len(list(p, "active_patents")), p["fto_status"], len(list(p, "patent_expiry_timeline")))
		},
	}
}

// NewClinical creates the trial pipeline worker.
func NewClinical(src catalog.Source) *Lookup {
	return &Lookup{
		id:     models.WorkerClinical,
		src:    src,
		table:  catalog.TableClinical,
		fields: []models.EntityField{models.FieldSubject, models.FieldCondition, models.FieldCategory, models.FieldQuery},
		defaults: func(string, models.Snapshot) catalog.Record {
			return catalog.Record{
				"ongoing_trials":   []any{},
				"completed_trials": []any{},
				"sponsors":         []any{},
				"trial_phases": map[string]any{
					"phase_1": 0,
					"phase_2": 0,
					"phase_3": 0,
					"phase_4": 0,
				},
				"completion_dates": []any{},
				"trial_status":     "unknown",
				"key_trials":       []any{},
			}
		},
		summarize: func(key string, p map[string]any) string {
			return fmt.Sprintf("Clinical trials for %s: %d ongoing trials, %s in Phase 3. Key sponsors: %s",
				key, len(list(p, "ongoing_trials")), nested(p, "trial_phases", "phase_3"),
				strings.Join(head(list(p, "sponsors"), 3), ", "))
		},
	}
}

// NewWeb creates the web intelligence worker. It always succeeds: on a miss
// it synthesizes placeholder guideline, publication, news and forum entries
// for the search key.
func NewWeb(src catalog.Source) *Lookup {
	return &Lookup{
		id:     models.WorkerWeb,
		src:    src,
		table:  catalog.TableWeb,
		fields: []models.EntityField{models.FieldQuery, models.FieldSubject, models.FieldCondition, models.FieldCategory},
		missOK: true,
		defaults: func(key string, _ models.Snapshot) catalog.Record {
			return catalog.Record{
				"guidelines": []any{
					"Clinical guidelines for " + key,
					"Treatment protocols for " + key,
				},
				"publications": []any{
					"Recent study: " + key + " efficacy",
					"Review article: " + key + " mechanism of action",
				},
				"news": []any{
					"Latest news on " + key,
					"Industry updates: " + key,
				},
				"forums": []any{
					"Patient discussion: " + key,
					"Healthcare provider insights: " + key,
				},
				"real_world_evidence": []any{},
			}
		},
		summarize: func(key string, p map[string]any) string {
			g, pub, news, forums := len(list(p, "guidelines")), len(list(p, "publications")), len(list(p, "news")), len(list(p, "forums"))
			return fmt.Sprintf("Web search for %s: Found %d relevant results including %d guidelines, %d publications, %d news articles.",
				key, g+pub+news+forums, g, pub, news)
		},
	}
}
