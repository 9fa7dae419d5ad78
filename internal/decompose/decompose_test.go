package decompose

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShayCichocki/pharmint/pkg/models"
)

func TestDecompose_Table(t *testing.T) {
	full := []models.WorkerID{
		models.WorkerMarket, models.WorkerTrade, models.WorkerPatent,
		models.WorkerClinical, models.WorkerInternal, models.WorkerWeb,
	}

	tests := []struct {
		intent models.Intent
		want   []models.WorkerID
	}{
		{models.IntentGeneral, full},
		{models.IntentOpportunity, full},
		{models.IntentMarket, []models.WorkerID{models.WorkerMarket, models.WorkerTrade, models.WorkerWeb}},
		{models.IntentPatent, []models.WorkerID{models.WorkerPatent, models.WorkerClinical, models.WorkerWeb}},
		{models.IntentClinical, []models.WorkerID{models.WorkerClinical, models.WorkerPatent, models.WorkerWeb}},
		{models.IntentTrade, []models.WorkerID{models.WorkerTrade, models.WorkerMarket}},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Decompose(tt.intent)); diff != "" {
				t.Errorf("Decompose(%s) mismatch (-want +got):\n%s", tt.intent, diff)
			}
		})
	}
}

func TestDecompose_EveryIntentValid(t *testing.T) {
	for _, intent := range models.Intents {
		t.Run(string(intent), func(t *testing.T) {
			got := New().Decompose(intent)
			result := Validate(got)
			assert.True(t, result.Valid, "worklist %v: %v", got, result.Err())
		})
	}
}

func TestDecompose_Deterministic(t *testing.T) {
	for _, intent := range models.Intents {
		first := Decompose(intent)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Decompose(intent))
		}
	}
}

func TestDecompose_ReturnsFreshSlice(t *testing.T) {
	a := Decompose(models.IntentTrade)
	a[0] = models.WorkerWeb

	b := Decompose(models.IntentTrade)
	assert.Equal(t, models.WorkerTrade, b[0])
}

func TestDecompose_UnknownIntentGetsFullAnalysis(t *testing.T) {
	assert.Equal(t, Decompose(models.IntentGeneral), Decompose(models.Intent("bogus")))
}

func TestTable_CoversEveryIntentOnce(t *testing.T) {
	seen := make(map[models.Intent]int)
	for _, row := range Table() {
		for _, i := range row.Intents {
			seen[i]++
		}
	}
	for _, intent := range models.Intents {
		assert.Equal(t, 1, seen[intent], "intent %s", intent)
	}
}

func TestTable_IsCopy(t *testing.T) {
	rows := Table()
	require.NotEmpty(t, rows)
	rows[0].Worklist[0] = models.WorkerReport

	assert.Equal(t, models.WorkerMarket, Table()[0].Worklist[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		worklist []models.WorkerID
		valid    bool
		wantErr  error
	}{
		{"valid", []models.WorkerID{models.WorkerTrade, models.WorkerMarket}, true, nil},
		{"empty", nil, false, ErrEmptyWorklist},
		{"unknown", []models.WorkerID{models.WorkerMarket, "iqvia"}, false, ErrUnknownWorker},
		{"report pseudo-worker", []models.WorkerID{models.WorkerReport}, false, ErrUnknownWorker},
		{"duplicate", []models.WorkerID{models.WorkerWeb, models.WorkerMarket, models.WorkerWeb}, false, ErrDuplicateWorker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.worklist)
			assert.Equal(t, tt.valid, result.Valid)
			if tt.wantErr == nil {
				assert.NoError(t, result.Err())
				return
			}
			assert.ErrorIs(t, result.Err(), tt.wantErr)
		})
	}
}
