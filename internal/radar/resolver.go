package radar

import "github.com/hyperjump/radar/internal/models"

// ResolveQueries picks the queries a run executes: finalQueries when present, else
// queries, capped at max. A raw plan that does not decode resolves to no queries.
func ResolveQueries(plan models.PlanRepresentation, max int) []string {
	qp := plan.Resolve()
	queries := nonEmpty(qp.FinalQueries)
	if len(queries) == 0 {
		queries = nonEmpty(qp.Queries)
	}
	if max > 0 && len(queries) > max {
		queries = queries[:max]
	}
	return queries
}

func nonEmpty(in []string) []string {
	var out []string
	for _, q := range in {
		if q != "" {
			out = append(out, q)
		}
	}
	return out
}
