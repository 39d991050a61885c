package intent

import "regexp"

// rule maps a regex pattern to an intent with a declared match confidence.
type rule struct {
	re    *regexp.Regexp
	label string
	score float64
}

// rules are evaluated in order; the highest-scoring match wins. Patterns
// assume canonicalized input (stands not gates, Terminal 1 not T1).
var rules = []rule{
	{regexp.MustCompile(`(?i)\b(details?|show details|information) (for|about|on) stand\b`), "stand.details", 0.9},
	{regexp.MustCompile(`(?i)\bstand [A-Z]?\d+[LR]?\b.*\b(details?|info)\b`), "stand.details", 0.85},
	{regexp.MustCompile(`(?i)\bstatus of (stand|stands|pier|terminal)\b`), "stand.status", 0.9},
	{regexp.MustCompile(`(?i)\b(availability|available|free|occupied) stands?\b`), "stand.status", 0.8},
	{regexp.MustCompile(`(?i)\bstands? .*\b(available|free|occupied|closed)\b`), "stand.status", 0.75},
	{regexp.MustCompile(`(?i)\bnearest stand\b`), "stand.nearest", 0.9},
	{regexp.MustCompile(`(?i)\bclosest stand\b`), "stand.nearest", 0.85},
	{regexp.MustCompile(`(?i)\b(airport (info|information|details))\b`), "airport.info", 0.9},
	{regexp.MustCompile(`(?i)\bstatus of maintenance\b`), "maintenance.status", 0.9},
	{regexp.MustCompile(`(?i)\bmaintenance (status|orders?|work|schedule)\b`), "maintenance.status", 0.85},
	{regexp.MustCompile(`(?i)\bmaintenance\b.*\b(impact|affect)\b`), "maintenance.impact", 0.85},
	{regexp.MustCompile(`(?i)\b(impact|effect) of maintenance\b`), "maintenance.impact", 0.9},
	{regexp.MustCompile(`(?i)\bcurrent (capacity|utilization)\b`), "capacity.current", 0.9},
	{regexp.MustCompile(`(?i)\bcapacity (now|today|at the moment)\b`), "capacity.current", 0.85},
	{regexp.MustCompile(`(?i)\b(forecast|predict|projection|next week|tomorrow)\b.*\bcapacity\b`), "capacity.forecast", 0.85},
	{regexp.MustCompile(`(?i)\bcapacity\b.*\b(forecast|tomorrow|next (week|month))\b`), "capacity.forecast", 0.85},
	{regexp.MustCompile(`(?i)\baircraft (type|info|information|details)\b`), "aircraft.info", 0.85},
	{regexp.MustCompile(`(?i)\bflight [A-Z]{2}\d+\b`), "flight.lookup", 0.9},
	{regexp.MustCompile(`(?i)\b(find|lookup|show) flights?\b`), "flight.lookup", 0.8},
	{regexp.MustCompile(`(?i)\bexport\b.*\b(data|csv|report)\b`), "export.data", 0.9},
	{regexp.MustCompile(`(?i)\b(go to|open|navigate to)\b`), "navigate.to", 0.8},
	{regexp.MustCompile(`(?i)^help\b`), "help", 0.95},
	{regexp.MustCompile(`(?i)^(what can you do|how do i use)\b`), "help", 0.85},
	{regexp.MustCompile(`(?i)^stop\b`), "stop", 0.95},
	{regexp.MustCompile(`(?i)^cancel\b`), "cancel", 0.95},
	{regexp.MustCompile(`(?i)^(repeat|say that again)\b`), "repeat", 0.95},
}

// matchRules returns the best-scoring rule match, if any.
func matchRules(text string) (Intent, bool) {
	var best Intent
	found := false
	for _, r := range rules {
		if r.re.MatchString(text) && (!found || r.score > best.Confidence) {
			best = Intent{
				Label:      r.label,
				Category:   CategoryOf(r.label),
				Confidence: r.score,
				Method:     MethodRules,
			}
			found = true
		}
	}
	return best, found
}
