package models

// Resource is a bookable court category, mapped 1:1 to an external calendar.
// The set of resources is immutable for the process lifetime.
type Resource struct {
	Key        string `mapstructure:"key" json:"key"`                // stable identifier used inside selection tokens
	Name       string `mapstructure:"name" json:"name"`              // human-readable display name
	CalendarID string `mapstructure:"calendar_id" json:"calendarId"` // external calendar identifier
}

// ResourceRegistry resolves resource keys to their calendar mapping.
// It is built once at startup from configuration and injected where needed.
type ResourceRegistry struct {
	ordered []Resource
	byKey   map[string]Resource
}

// NewResourceRegistry builds a registry from the configured resource list.
// Order is preserved for menu rendering.
func NewResourceRegistry(resources []Resource) *ResourceRegistry {
	reg := &ResourceRegistry{
		ordered: make([]Resource, 0, len(resources)),
		byKey:   make(map[string]Resource, len(resources)),
	}
	for _, r := range resources {
		if _, dup := reg.byKey[r.Key]; dup {
			continue
		}
		reg.byKey[r.Key] = r
		reg.ordered = append(reg.ordered, r)
	}
	return reg
}

// ByKey returns the resource for the given key.
func (reg *ResourceRegistry) ByKey(key string) (Resource, bool) {
	r, ok := reg.byKey[key]
	return r, ok
}

// All returns the resources in configuration order.
func (reg *ResourceRegistry) All() []Resource {
	out := make([]Resource, len(reg.ordered))
	copy(out, reg.ordered)
	return out
}
