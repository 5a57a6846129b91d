package models

// Registry owns the counters shared by every Catalog built against it:
// catalogs created and distinct items inserted.
//
// Registry is not safe for concurrent use. Callers building catalogs from
// several goroutines must serialize access to the registry themselves.
type Registry struct {
	catalogs int
	items    int
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Catalogs returns the number of catalogs constructed against r.
func (r *Registry) Catalogs() int { return r.catalogs }

// Items returns the number of distinct items inserted across all catalogs of r.
func (r *Registry) Items() int { return r.items }

func (r *Registry) catalogCreated() { r.catalogs++ }
func (r *Registry) itemRegistered() { r.items++ }
