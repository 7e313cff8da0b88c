package catalog

import "github.com/nexus-reussite/scoring-engine/internal/stats"

// Display labels for subjects and their domains. These are the fixed tables
// the UI and PDF layers key on; the engine never formats free text.

var subjectLabels = map[stats.Subject]string{
	stats.SubjectMaths: "Mathématiques",
	stats.SubjectNSI:   "NSI (Numérique et Sciences Informatiques)",
}

// SubjectLabel returns the display name for a subject, or the raw code for
// subjects outside the known set.
func SubjectLabel(s stats.Subject) string {
	if l, ok := subjectLabels[s]; ok {
		return l
	}
	return string(s)
}

// Canonical domain keys per subject. Every assessment for a subject must
// produce exactly these keys in its domain scores; missing domains are
// backfilled with 0 so radar axes and cohort aggregation stay stable.
var canonicalDomains = map[stats.Subject][]string{
	stats.SubjectMaths: {"algebre", "analyse", "geometrie", "combinatoire", "logExp", "probabilites"},
	stats.SubjectNSI:   {"python", "poo", "structures", "algorithmique", "sql", "architecture"},
}

// CanonicalDomains returns the canonical domain list for a subject. Unknown
// subjects fall back to the Maths list.
func CanonicalDomains(s stats.Subject) []string {
	if d, ok := canonicalDomains[s]; ok {
		return d
	}
	return canonicalDomains[stats.SubjectMaths]
}

// BackfillDomains completes a partial domain→score map with every canonical
// domain for the subject, defaulting missing or non-finite entries to 0.
func BackfillDomains(s stats.Subject, partial map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for _, d := range CanonicalDomains(s) {
		if v, ok := partial[d]; ok && v == v { // v==v filters NaN
			out[d] = v
		} else {
			out[d] = 0
		}
	}
	return out
}
