package pipeline

// Failure records one record that could not be stored.
type Failure struct {
	ID  int64
	Err error
}

// Report enumerates per-record outcomes of a batch or repository sweep.
type Report struct {
	Succeeded []int64
	Failures  []Failure
}

// Ok reports whether every record made it into the store.
func (r *Report) Ok() bool { return len(r.Failures) == 0 }

// Merge folds another report's outcomes into this one.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Succeeded = append(r.Succeeded, other.Succeeded...)
	r.Failures = append(r.Failures, other.Failures...)
}

func (r *Report) success(id int64) {
	r.Succeeded = append(r.Succeeded, id)
}

func (r *Report) fail(id int64, err error) {
	r.Failures = append(r.Failures, Failure{ID: id, Err: err})
}

func (r *Report) seen() map[int64]bool {
	out := make(map[int64]bool, len(r.Succeeded)+len(r.Failures))
	for _, id := range r.Succeeded {
		out[id] = true
	}
	for _, f := range r.Failures {
		out[f.ID] = true
	}
	return out
}
