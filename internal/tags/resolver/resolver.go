// Package resolver turns an identity plus the current rule set into one
// concrete tag.
package resolver

import (
	"context"

	"tagd/internal/oracle"
	"tagd/internal/tags/models"
)

// Resolve picks the tag for an identity against one rule-set snapshot.
//
// Two tiers, first match wins:
//  1. a rule whose token is the literal decimal form of the identity, the
//     per-player override tier, independent of any permission backend.
//  2. the first rule, in declared order, whose token the oracle grants.
//
// No match yields a clone of the default; an identity with no grants is a
// routine outcome, never an error. Rules with blank tokens are skipped in the
// permission tier so a misconfigured empty token cannot act as an
// accidental "everyone" rule.
//
// The returned tag is always an independent copy; callers may mutate it
// freely without affecting the snapshot.
func Resolve(ctx context.Context, identity uint64, rs *models.RuleSet, o oracle.PermissionOracle) *models.Tag {
	if rs == nil {
		return (&models.Tag{}).Clone()
	}

	literal := models.LiteralToken(identity)
	for i := range rs.Rules {
		if rs.Rules[i].Token == literal {
			return rs.Rules[i].Tag.Clone()
		}
	}

	if o != nil {
		for i := range rs.Rules {
			token := rs.Rules[i].Token
			if token == "" {
				continue
			}
			if o.HasPermission(ctx, identity, token) {
				return rs.Rules[i].Tag.Clone()
			}
		}
	}

	return rs.Default.Clone()
}
