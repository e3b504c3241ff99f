package leads

import "context"

// leadGetter is implemented by stores that can fetch one lead without a
// full load.
type leadGetter interface {
	GetByID(ctx context.Context, id string) (*Lead, error)
}

// Query is the operator read side over a Store.
type Query struct {
	store Store
}

// NewQuery creates a read-side view over store.
func NewQuery(store Store) *Query {
	if store == nil {
		panic("leads: store required")
	}
	return &Query{store: store}
}

// ListAll returns every lead in insertion order with its count. A non-empty
// status keeps only leads in that status.
func (q *Query) ListAll(ctx context.Context, status Status) ([]Lead, int, error) {
	all, err := q.store.LoadAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	if status == "" {
		return all, len(all), nil
	}
	filtered := make([]Lead, 0, len(all))
	for _, l := range all {
		if l.Status == status {
			filtered = append(filtered, l)
		}
	}
	return filtered, len(filtered), nil
}

// Get returns a single lead by id.
func (q *Query) Get(ctx context.Context, id string) (*Lead, error) {
	if g, ok := q.store.(leadGetter); ok {
		return g.GetByID(ctx, id)
	}
	all, err := q.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, ErrLeadNotFound
}
