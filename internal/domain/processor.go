package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zhaddad/aeromind/internal/airportdata"
	"github.com/zhaddad/aeromind/internal/intent"
)

// ErrValidationFailed is the sentinel wrapped by ValidationError.
var ErrValidationFailed = errors.New("entity validation failed")

// ValidationError reports which entities an intent requires but the bag is
// missing.
type ValidationError struct {
	Intent  string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("intent %s missing required entities: %s", e.Intent, strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// Metadata describes domain properties of a processed query.
type Metadata struct {
	Category      intent.Category `json:"category"`
	LocationBased bool            `json:"locationBased"`
	TimeDependent bool            `json:"timeDependent"`
	AirportRef    string          `json:"airportRef"`
}

// Result is the output of processing: the enriched bag plus metadata.
type Result struct {
	Entities EntityBag `json:"entities"`
	Metadata Metadata  `json:"metadata"`
}

// requirements defines per-intent entity requirements. required entities
// must all be present; each anyOf group needs at least one member present.
type requirements struct {
	required []string
	anyOf    [][]string
}

var requirementsByIntent = map[string]requirements{
	"stand.details":      {required: []string{"stand"}},
	"stand.status":       {},
	"stand.nearest":      {anyOf: [][]string{{"coordinates", "referencePoint"}}},
	"airport.info":       {required: []string{"airport"}},
	"maintenance.status": {},
	"maintenance.impact": {},
	"capacity.current":   {required: []string{"airport"}},
	"capacity.forecast":  {required: []string{"airport"}},
	"aircraft.info":      {required: []string{"aircraftType"}},
	"flight.lookup":      {required: []string{"flightNumber"}},
}

// defaultsByIntent lists entities filled from configuration when absent.
// The only configurable default today is the airport.
var defaultAirportIntents = map[string]bool{
	"stand.details":      true,
	"stand.status":       true,
	"stand.nearest":      true,
	"airport.info":       true,
	"maintenance.status": true,
	"maintenance.impact": true,
	"capacity.current":   true,
	"capacity.forecast":  true,
	"flight.lookup":      true,
}

var locationBasedIntents = map[string]bool{
	"stand.details": true,
	"stand.status":  true,
	"stand.nearest": true,
}

var timeDependentIntents = map[string]bool{
	"capacity.current":   true,
	"capacity.forecast":  true,
	"flight.lookup":      true,
	"maintenance.status": true,
	"maintenance.impact": true,
}

// standPrimaryIntents are intents whose primary asset entity is a stand,
// for which terminal and pier can be inferred from the database.
var standPrimaryIntents = map[string]bool{
	"stand.details": true,
	"stand.status":  true,
}

// Processor enriches and validates entity bags per intent.
type Processor struct {
	data           *airportdata.Store
	defaultAirport string
}

// NewProcessor creates a processor. defaultAirport is injected into intents
// that operate on an airport when none was extracted.
func NewProcessor(data *airportdata.Store, defaultAirport string) *Processor {
	return &Processor{data: data, defaultAirport: defaultAirport}
}

// Process runs default injection, context propagation, linked-entity
// inference and requirement validation, in that order. contextEntities is
// the entity bag carried by the conversation; it may be nil.
func (p *Processor) Process(ctx context.Context, it *intent.Intent, entities EntityBag, contextEntities EntityBag) (*Result, error) {
	bag := entities.Clone()
	if bag == nil {
		bag = make(EntityBag)
	}

	// 1. Default injection.
	if p.defaultAirport != "" && defaultAirportIntents[it.Label] && !bag.Has("airport") {
		bag["airport"] = EntityValue{Value: p.defaultAirport, FromDefault: true}
	}

	// 2. Context propagation.
	for _, name := range KnownEntityTypes {
		if bag.Has(name) {
			continue
		}
		if cv, ok := contextEntities[name]; ok && cv.Value != nil {
			bag[name] = EntityValue{Value: cv.Value, FromContext: true}
		}
	}

	// 3. Domain inference.
	if standPrimaryIntents[it.Label] && bag.Has("stand") {
		if standID, ok := bag["stand"].Value.(string); ok && standID != "" {
			info, err := p.data.StandInfo(ctx, standID)
			if err != nil {
				return nil, fmt.Errorf("inferring linked entities for stand %s: %w", standID, err)
			}
			if info != nil {
				if info.Terminal != "" && !bag.Has("terminal") {
					bag["terminal"] = EntityValue{Value: info.Terminal, Inferred: true}
				}
				if info.Pier != "" && !bag.Has("pier") {
					bag["pier"] = EntityValue{Value: info.Pier, Inferred: true}
				}
			}
		}
	}

	// 4. Requirement validation.
	if err := validate(it.Label, bag); err != nil {
		return nil, err
	}

	airportRef := ""
	if v, ok := bag["airport"].Value.(string); ok {
		airportRef = v
	}

	return &Result{
		Entities: bag,
		Metadata: Metadata{
			Category:      it.Category,
			LocationBased: locationBasedIntents[it.Label],
			TimeDependent: bag.Has("date") || bag.Has("timeRange") || timeDependentIntents[it.Label],
			AirportRef:    airportRef,
		},
	}, nil
}

func validate(label string, bag EntityBag) error {
	reqs, ok := requirementsByIntent[label]
	if !ok {
		return nil
	}

	var missing []string
	for _, name := range reqs.required {
		if !bag.Has(name) {
			missing = append(missing, name)
		}
	}
	for _, group := range reqs.anyOf {
		satisfied := false
		for _, name := range group {
			if bag.Has(name) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, strings.Join(group, "|"))
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return &ValidationError{Intent: label, Missing: missing}
	}
	return nil
}
