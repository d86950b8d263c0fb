package reconcile

import (
	"github.com/assemblage/backend/pkg/common"
)

// Mediator classifications, from least to most transformative.
const (
	StrongIntermediary = "strong_intermediary"
	WeakIntermediary   = "weak_intermediary"
	WeakMediator       = "weak_mediator"
	StrongMediator     = "strong_mediator"
)

// ClassifyMediator buckets a mediator score in [0,1].
func ClassifyMediator(score float64) string {
	switch {
	case score < 0.3:
		return StrongIntermediary
	case score < 0.5:
		return WeakIntermediary
	case score < 0.7:
		return WeakMediator
	default:
		return StrongMediator
	}
}

// ClaimsFromConnections turns the potential connections attached to actors
// into formal claims sourced at the actor that holds them.
func ClaimsFromConnections(actors []common.Actor) []common.FormalClaim {
	var claims []common.FormalClaim
	for _, a := range actors {
		for _, pc := range a.PotentialConnections {
			if pc.TargetActor == "" {
				continue
			}
			claims = append(claims, common.FormalClaim{
				SourceID:    a.ID,
				SourceName:  a.Name,
				TargetName:  pc.TargetActor,
				Kind:        pc.RelationshipType,
				Description: pc.Evidence,
			})
		}
	}
	return claims
}
