// Package intent classifies canonicalized queries into a closed taxonomy of
// airport-assistant intents. Classification is rules-first with an LLM
// fallback for queries no rule matches confidently.
package intent

// Category groups intents by the kind of thing they act on.
type Category string

const (
	CategoryAsset       Category = "asset"
	CategoryReference   Category = "reference"
	CategoryMaintenance Category = "maintenance"
	CategoryOperational Category = "operational"
	CategoryMeta        Category = "meta"
)

// Method records how an intent was determined.
type Method string

const (
	MethodRules Method = "rules"
	MethodLLM   Method = "llm"
)

// Intent is the result of classifying a query.
type Intent struct {
	Label      string   `json:"label"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Method     Method   `json:"method"`
}

// Labels is the closed intent taxonomy. The category of a label derives from
// its leading dotted token.
var Labels = []string{
	"stand.details",
	"stand.status",
	"stand.nearest",
	"airport.info",
	"maintenance.status",
	"maintenance.impact",
	"capacity.current",
	"capacity.forecast",
	"aircraft.info",
	"flight.lookup",
	"export.data",
	"navigate.to",
	"help",
	"stop",
	"cancel",
	"repeat",
}

var labelSet = func() map[string]bool {
	m := make(map[string]bool, len(Labels))
	for _, l := range Labels {
		m[l] = true
	}
	return m
}()

// Known reports whether label is part of the taxonomy.
func Known(label string) bool {
	return labelSet[label]
}

var categoryByToken = map[string]Category{
	"stand":       CategoryAsset,
	"airport":     CategoryReference,
	"aircraft":    CategoryReference,
	"maintenance": CategoryMaintenance,
	"capacity":    CategoryOperational,
	"flight":      CategoryOperational,
	"export":      CategoryMeta,
	"navigate":    CategoryMeta,
	"help":        CategoryMeta,
	"stop":        CategoryMeta,
	"cancel":      CategoryMeta,
	"repeat":      CategoryMeta,
}

// CategoryOf derives the category from the label's leading dotted token.
func CategoryOf(label string) Category {
	token := label
	for i := 0; i < len(label); i++ {
		if label[i] == '.' {
			token = label[:i]
			break
		}
	}
	if c, ok := categoryByToken[token]; ok {
		return c
	}
	return CategoryMeta
}
