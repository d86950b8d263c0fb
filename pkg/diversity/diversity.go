// Package diversity scores how heterogeneous the membership of a community
// is, based on the categories of its actors.
package diversity

import (
	"math"
	"strings"

	"github.com/assemblage/backend/pkg/common"
)

// Bucket is a coarse actor category group used for entropy scoring.
type Bucket string

const (
	BucketSocial        Bucket = "social"
	BucketTechnical     Bucket = "technical"
	BucketInstitutional Bucket = "institutional"
	BucketMarket        Bucket = "market"
	BucketOther         Bucket = "other"
)

// Buckets lists every bucket. The maximum entropy is ln(len(Buckets)).
var Buckets = []Bucket{
	BucketSocial,
	BucketTechnical,
	BucketInstitutional,
	BucketMarket,
	BucketOther,
}

type bucketRule struct {
	bucket   Bucket
	keywords []string
}

// Rules are checked in order; the first keyword contained in the lowercased
// category wins.
var bucketRules = []bucketRule{
	{BucketSocial, []string{"civil society", "academic", "activist", "user", "technologist", "public", "citizen"}},
	{BucketTechnical, []string{"algorithm", "dataset", "infrastructure", "technology", "model", "hardware", "compute", "code"}},
	{BucketInstitutional, []string{"policymaker", "government", "regulat", "legalobject", "law", "court"}},
	{BucketMarket, []string{"startup", "privatetech", "company", "business", "corporation", "investor", "market"}},
}

var humanKeywords = []string{"policymaker", "civil society", "academic", "user", "technologist"}

// BucketFor maps a category to its bucket by case-insensitive keyword
// containment. Unmatched categories land in BucketOther.
func BucketFor(c common.Category) Bucket {
	lc := strings.ToLower(string(c))
	for _, r := range bucketRules {
		if containsAny(lc, r.keywords) {
			return r.bucket
		}
	}
	return BucketOther
}

// IsHuman reports whether actors of category c count as human participants.
func IsHuman(c common.Category) bool {
	return containsAny(strings.ToLower(string(c)), humanKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Score returns the Shannon entropy of the bucket distribution of
// categories, normalised by ln(len(Buckets)) and clamped to [0, 1].
// An empty input scores 0.
func Score(categories []common.Category) float64 {
	if len(categories) == 0 {
		return 0
	}

	counts := make(map[Bucket]int, len(Buckets))
	for _, c := range categories {
		counts[BucketFor(c)]++
	}

	n := float64(len(categories))
	var h float64
	for _, b := range Buckets {
		k := counts[b]
		if k == 0 {
			continue
		}
		p := float64(k) / n
		h -= p * math.Log(p)
	}

	score := h / math.Log(float64(len(Buckets)))
	return math.Max(0, math.Min(1, score))
}

// Composition summarises the actor makeup of one community.
type Composition struct {
	Score          float64
	HumanCount     int
	NonHumanCount  int
	CategoryCounts map[common.Category]int
}

// Compose scores actors and counts them by category and by human/non-human.
func Compose(actors []common.Actor) Composition {
	comp := Composition{CategoryCounts: make(map[common.Category]int)}
	categories := make([]common.Category, 0, len(actors))
	for _, a := range actors {
		categories = append(categories, a.Category)
		comp.CategoryCounts[a.Category]++
		if IsHuman(a.Category) {
			comp.HumanCount++
		} else {
			comp.NonHumanCount++
		}
	}
	comp.Score = Score(categories)
	return comp
}
