// Package domain enriches classified queries with airport-domain knowledge:
// default entities, entities carried over from the conversation, linked
// entities inferred from the operational database, and per-intent
// requirement validation.
package domain

// EntityValue holds an entity value plus provenance flags recording how it
// entered the bag.
type EntityValue struct {
	Value       any  `json:"value"`
	FromDefault bool `json:"_fromDefault,omitempty"`
	Inferred    bool `json:"_inferred,omitempty"`
	FromContext bool `json:"_fromContext,omitempty"`
}

// EntityBag maps entity names to values with provenance. Keys come from the
// fixed domain vocabulary (stand, terminal, pier, airport, aircraftType,
// date, timeRange, coordinates, referencePoint, flightNumber).
type EntityBag map[string]EntityValue

// KnownEntityTypes is the fixed vocabulary of entity names propagated from
// conversation context.
var KnownEntityTypes = []string{
	"stand",
	"terminal",
	"pier",
	"airport",
	"aircraftType",
	"date",
	"timeRange",
	"coordinates",
	"referencePoint",
	"flightNumber",
}

// Has reports whether the bag holds a non-nil value for name.
func (b EntityBag) Has(name string) bool {
	v, ok := b[name]
	return ok && v.Value != nil
}

// Values flattens the bag to plain name→value pairs, dropping provenance.
func (b EntityBag) Values() map[string]any {
	out := make(map[string]any, len(b))
	for k, v := range b {
		out[k] = v.Value
	}
	return out
}

// Clone returns a shallow copy of the bag.
func (b EntityBag) Clone() EntityBag {
	out := make(EntityBag, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// FromValues builds a bag from plain name→value pairs with no provenance
// flags set.
func FromValues(values map[string]any) EntityBag {
	bag := make(EntityBag, len(values))
	for k, v := range values {
		if v == nil {
			continue
		}
		bag[k] = EntityValue{Value: v}
	}
	return bag
}
