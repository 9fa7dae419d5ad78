package models

import "testing"

func TestIntent_Valid(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		want   bool
	}{
		{"general is valid", IntentGeneral, true},
		{"market is valid", IntentMarket, true},
		{"patent is valid", IntentPatent, true},
		{"clinical is valid", IntentClinical, true},
		{"trade is valid", IntentTrade, true},
		{"opportunity is valid", IntentOpportunity, true},
		{"empty string is invalid", Intent(""), false},
		{"uppercase is invalid", Intent("MARKET"), false},
		{"legacy label is invalid", Intent("market_analysis"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.intent.Valid(); got != tt.want {
				t.Errorf("Intent(%q).Valid() = %v, want %v", tt.intent, got, tt.want)
			}
		})
	}
}

func TestIntents_AllValid(t *testing.T) {
	if len(Intents) != 6 {
		t.Fatalf("expected 6 intents, got %d", len(Intents))
	}
	for _, i := range Intents {
		if !i.Valid() {
			t.Errorf("Intents contains invalid %q", i)
		}
	}
}

func TestWorkerID_Valid(t *testing.T) {
	tests := []struct {
		id       WorkerID
		valid    bool
		dataWork bool
	}{
		{WorkerMarket, true, true},
		{WorkerTrade, true, true},
		{WorkerPatent, true, true},
		{WorkerClinical, true, true},
		{WorkerInternal, true, true},
		{WorkerWeb, true, true},
		{WorkerReport, true, false},
		{WorkerID("iqvia"), false, false},
		{WorkerID(""), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			if got := tt.id.Valid(); got != tt.valid {
				t.Errorf("WorkerID(%q).Valid() = %v, want %v", tt.id, got, tt.valid)
			}
			if got := tt.id.IsDataWorker(); got != tt.dataWork {
				t.Errorf("WorkerID(%q).IsDataWorker() = %v, want %v", tt.id, got, tt.dataWork)
			}
		})
	}
}

func TestWorkerID_Title(t *testing.T) {
	if got := WorkerMarket.Title(); got != "Market Analysis" {
		t.Errorf("WorkerMarket.Title() = %q", got)
	}
	if got := WorkerID("custom").Title(); got != "custom" {
		t.Errorf("unknown worker title = %q, want raw id", got)
	}
}

func TestEnvelopeConstructors(t *testing.T) {
	ok := Success("fine", nil)
	if !ok.OK() || ok.Payload == nil {
		t.Errorf("Success envelope = %+v", ok)
	}

	bad := Failure("broken", map[string]any{"k": 1})
	if bad.OK() || bad.Status != StatusError {
		t.Errorf("Failure envelope = %+v", bad)
	}
	if bad.Payload["k"] != 1 {
		t.Errorf("Failure payload lost: %+v", bad.Payload)
	}
}

func TestArtifactFormat(t *testing.T) {
	tests := []struct {
		format ArtifactFormat
		valid  bool
		ext    string
	}{
		{FormatMarkdown, true, ".md"},
		{FormatText, true, ".txt"},
		{FormatHTML, true, ".html"},
		{FormatXLSX, true, ".xlsx"},
		{ArtifactFormat("pdf"), false, ".md"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := tt.format.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.format.Extension(); got != tt.ext {
				t.Errorf("Extension() = %q, want %q", got, tt.ext)
			}
		})
	}
}
