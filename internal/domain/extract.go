package domain

import (
	"regexp"
	"sort"
)

// Hazard labels produced by keyword inference. HazardOther is the fallback
// when nothing matches, so downstream stages never see an empty hazard list.
const (
	HazardFire       = "FIRE"
	HazardFlood      = "FLOOD"
	HazardGasLeak    = "GAS_LEAK"
	HazardHeatwave   = "HEATWAVE"
	HazardLandslide  = "LANDSLIDE"
	HazardEarthquake = "EARTHQUAKE"
	HazardOther      = "OTHER"
)

// otherConfidence is the confidence assigned to the fallback OTHER guess.
const otherConfidence = 0.2

// extractionRule is one entry of a data-driven extraction table: a span
// category, a label, the keywords that imply it, and the fixed confidence
// weight of a match. Adding a hazard or category is a data change, not a
// code change.
type extractionRule struct {
	spanType SpanType
	label    string
	keywords []string
	weight   float64
}

var extractionRules = []extractionRule{
	{SpanHazard, HazardFire, []string{"fire", "smoke", "burning", "flames", "blaze", "wildfire"}, 0.75},
	{SpanHazard, HazardFlood, []string{"flood", "flooding", "flooded", "water rising", "overflow", "inundated"}, 0.75},
	{SpanHazard, HazardGasLeak, []string{"gas leak", "gas smell", "smell of gas", "fumes", "leaking gas"}, 0.7},
	{SpanHazard, HazardHeatwave, []string{"heatwave", "heat wave", "extreme heat", "scorching", "heat stroke"}, 0.65},
	{SpanHazard, HazardLandslide, []string{"landslide", "mudslide", "rockfall", "hillside collapsed"}, 0.75},
	{SpanHazard, HazardEarthquake, []string{"earthquake", "tremor", "quake", "ground shaking", "aftershock"}, 0.75},
	{SpanNeed, "need", []string{"need help", "need", "help", "urgent", "rescue", "assistance", "emergency"}, 0.6},
	{SpanResource, "resource", []string{"water", "food", "medicine", "shelter", "blankets", "ambulance"}, 0.5},
	{SpanVictim, "victim", []string{"trapped", "injured", "missing", "casualties", "wounded", "children"}, 0.7},
	{SpanLocation, "location", []string{"near", "at", "beside", "next to", "around", "close to"}, 0.55},
}

// compiledRules holds one whole-word matcher per keyword, built once from
// the rule table. Input text is already lowercased by canonicalization.
var compiledRules = func() []struct {
	extractionRule
	patterns []*regexp.Regexp
} {
	out := make([]struct {
		extractionRule
		patterns []*regexp.Regexp
	}, len(extractionRules))
	for i, rule := range extractionRules {
		out[i].extractionRule = rule
		out[i].patterns = make([]*regexp.Regexp, len(rule.keywords))
		for j, kw := range rule.keywords {
			out[i].patterns[j] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		}
	}
	return out
}()

// ExtractEntities scans normalized text for whole-word keyword matches and
// records typed spans with character offsets. Deterministic and
// side-effect-free.
func ExtractEntities(text string) []EntitySpan {
	var spans []EntitySpan
	for _, rule := range compiledRules {
		for i, re := range rule.patterns {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				spans = append(spans, EntitySpan{
					Type:       rule.spanType,
					Value:      rule.keywords[i],
					Start:      loc[0],
					End:        loc[1],
					Confidence: rule.weight,
				})
			}
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

// InferHazards aggregates hazard keyword hits into per-label confidences.
// The base confidence is the maximum matching keyword weight; each
// additional distinct keyword hit for the same label raises it by 0.05,
// clamped to [0,1]. Always returns at least one guess, sorted by confidence
// descending, defaulting to OTHER with low confidence.
func InferHazards(text string) []HazardGuess {
	var guesses []HazardGuess
	for _, rule := range compiledRules {
		if rule.spanType != SpanHazard {
			continue
		}
		hits := 0
		for _, re := range rule.patterns {
			if re.MatchString(text) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		conf := rule.weight + 0.05*float64(hits-1)
		guesses = append(guesses, HazardGuess{Label: rule.label, Confidence: clamp01(conf)})
	}

	if len(guesses) == 0 {
		return []HazardGuess{{Label: HazardOther, Confidence: otherConfidence}}
	}

	sort.SliceStable(guesses, func(i, j int) bool { return guesses[i].Confidence > guesses[j].Confidence })
	return guesses
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
