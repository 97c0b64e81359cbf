package store

import "github.com/jacentio/slipway/entity"

// Relationship declares that one entity kind carries another, and names the
// attribute on the carried record that points back at the carrier.
type Relationship struct {
	// CarrierKind is the carrying entity kind (e.g. Boat).
	CarrierKind entity.Kind

	// CargoKind is the carried entity kind (e.g. Load).
	CargoKind entity.Kind

	// CarrierAttr is the attribute on the cargo record that references the
	// carrier (e.g. "carrier").
	CarrierAttr string
}

// Registry holds the carrier relationships the store enforces.
type Registry struct {
	relationships []Relationship
	byCarrier     map[entity.Kind][]Relationship
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		relationships: []Relationship{},
		byCarrier:     make(map[entity.Kind][]Relationship),
	}
}

// DefaultRegistry returns the built-in relationships: boats carry loads.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Relationship{
		CarrierKind: entity.KindBoat,
		CargoKind:   entity.KindLoad,
		CarrierAttr: "carrier",
	})
	return r
}

// Register adds a relationship to the registry.
func (r *Registry) Register(rel Relationship) {
	r.relationships = append(r.relationships, rel)
	r.byCarrier[rel.CarrierKind] = append(r.byCarrier[rel.CarrierKind], rel)
}

// CargoOf returns all cargo relationships for a given carrier kind.
func (r *Registry) CargoOf(carrier entity.Kind) []Relationship {
	return r.byCarrier[carrier]
}

// AllRelationships returns all registered relationships.
func (r *Registry) AllRelationships() []Relationship {
	return r.relationships
}

// Carries returns true if the kind has any registered cargo relationships.
func (r *Registry) Carries(carrier entity.Kind) bool {
	return len(r.byCarrier[carrier]) > 0
}
