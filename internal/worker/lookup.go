package worker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ShayCichocki/pharmint/internal/catalog"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

// Lookup is a worker that answers from one catalog table. It tries the
// snapshot's search keys in order and summarizes the first matching record.
type Lookup struct {
	id     models.WorkerID
	src    catalog.Source
	table  catalog.Table
	fields []models.EntityField

	// defaults is the payload used when no record matches.
	defaults func(key string, snap models.Snapshot) catalog.Record
	// missOK reports a miss as success with the default payload.
	missOK bool
	// decorate adds derived fields to the payload before summarizing.
	decorate  func(payload map[string]any)
	summarize func(key string, payload map[string]any) string
}

func (l *Lookup) ID() models.WorkerID { return l.id }

// Table returns the catalog table the worker reads.
func (l *Lookup) Table() catalog.Table { return l.table }

// Invoke implements Worker. It never returns an error; data-source failures
// and misses come back as error envelopes.
func (l *Lookup) Invoke(ctx context.Context, snap models.Snapshot) (models.ResultEnvelope, error) {
	keys := snap.SearchKeys(l.fields...)
	key := ""
	if len(keys) > 0 {
		key = keys[0]
	}

	rec, matched, found, err := lookupFirst(ctx, l.src, l.table, keys)
	if err != nil {
		return models.Failure(fmt.Sprintf("Error fetching %s data: %v", l.table, err), nil), nil
	}

	payload := map[string]any(l.defaults(key, snap))
	if found {
		key = matched
		payload = map[string]any(rec)
	}
	payload["search_key"] = key
	if l.decorate != nil {
		l.decorate(payload)
	}

	if !found && !l.missOK {
		return models.Failure(fmt.Sprintf("No %s data found for %s", l.table, key), payload), nil
	}
	return models.Success(l.summarize(key, payload), payload), nil
}

// lookupFirst returns the first record any of keys matches, with the key
// that matched.
func lookupFirst(ctx context.Context, src catalog.Source, table catalog.Table, keys []string) (catalog.Record, string, bool, error) {
	for _, key := range keys {
		rec, ok, err := src.Lookup(ctx, table, key)
		if err != nil {
			return nil, "", false, err
		}
		if ok {
			return rec, key, true, nil
		}
	}
	return nil, "", false, nil
}

// number renders a numeric payload field without trailing zeros.
func number(payload map[string]any, field string) string {
	switch v := payload[field].(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	case nil:
		return "0"
	default:
		return fmt.Sprint(v)
	}
}

// list returns a list payload field as strings.
func list(payload map[string]any, field string) []string {
	switch v := payload[field].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

// nested returns a numeric field of a map-valued payload field.
func nested(payload map[string]any, field, key string) string {
	m, ok := payload[field].(map[string]any)
	if !ok {
		return "0"
	}
	return number(m, key)
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
