package ranking

import (
	"sort"

	"adpulse/domain/insight"
)

// Rank orders hypotheses descending by final confidence. Ties break by
// scope (overall before campaign), then larger recent impression volume,
// then hypothesis ID ascending, so the order is a stable total order
// across reruns. No hypothesis is ever discarded here; confidence
// filtering is a consumer concern.
func Rank(hypotheses []insight.Hypothesis) []insight.Hypothesis {
	ranked := make([]insight.Hypothesis, len(hypotheses))
	copy(ranked, hypotheses)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Confidence() != b.Confidence() {
			return a.Confidence() > b.Confidence()
		}
		if a.Scope != b.Scope {
			return a.Scope == insight.ScopeOverall
		}
		if a.RecentImpressions() != b.RecentImpressions() {
			return a.RecentImpressions() > b.RecentImpressions()
		}
		return a.ID < b.ID
	})
	return ranked
}
