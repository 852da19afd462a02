package trainer

import (
	"github.com/ezoic/bikedemand/metrics"
	scigoErrors "github.com/ezoic/bikedemand/pkg/errors"
	"github.com/ezoic/bikedemand/preprocessing"
)

// Entry is one candidate of a training run. Err is set, and Result is nil,
// when the candidate failed under IsolateFailures.
type Entry struct {
	Name      string
	Candidate *Candidate
	Result    *EvaluationResult
	Err       error
}

// Failed reports whether the candidate failed to train or evaluate.
func (e Entry) Failed() bool { return e.Err != nil }

// Registry is the outcome of one run: candidates in declaration order and a
// best entry chosen once every candidate finished.
type Registry struct {
	entries []Entry
	best    int
	schema  preprocessing.Schema
	scaler  *preprocessing.ScalerState
}

// NewRegistry selects the best of entries. scaler may be nil for registries
// that are only analysed, never used to predict.
//
// Errors:
//   - ErrAllCandidatesFailed: no entry succeeded
func NewRegistry(entries []Entry, schema preprocessing.Schema, scaler *preprocessing.ScalerState) (*Registry, error) {
	best := selectBest(entries)
	if best < 0 {
		return nil, scigoErrors.Wrap(scigoErrors.ErrAllCandidatesFailed, "select best model")
	}
	return &Registry{entries: entries, best: best, schema: schema, scaler: scaler}, nil
}

// selectBest returns the index of the successful entry with the highest test
// R², or -1 when every entry failed. Ties keep the earlier entry and an
// undefined R² never beats a defined one.
func selectBest(entries []Entry) int {
	best := -1
	var bestTest metrics.Bundle
	for i, e := range entries {
		if e.Failed() || e.Result == nil {
			continue
		}
		if best < 0 || metrics.BetterR2(e.Result.Test, bestTest) {
			best = i
			bestTest = e.Result.Test
		}
	}
	return best
}

// Best returns the selected entry.
func (r *Registry) Best() Entry { return r.entries[r.best] }

// Get returns the entry named name.
func (r *Registry) Get(name string) (Entry, bool) {
	for _, e := range r.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Names returns the candidate names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns every entry in declaration order, including failures.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Results maps each successful candidate to its EvaluationResult.
func (r *Registry) Results() map[string]*EvaluationResult {
	out := make(map[string]*EvaluationResult, len(r.entries))
	for _, e := range r.entries {
		if !e.Failed() {
			out[e.Name] = e.Result
		}
	}
	return out
}

// Schema is the feature schema the candidates were trained on.
func (r *Registry) Schema() preprocessing.Schema { return r.schema }

// Scaler is the standardisation fitted on the training partition.
func (r *Registry) Scaler() *preprocessing.ScalerState { return r.scaler }
