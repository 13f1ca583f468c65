package allocation

import (
	"strings"

	"hearth/internal/models"
)

// BucketTable maps category codes or tags to buckets for categories that
// carry no bucket of their own. Keys are matched case-insensitively.
type BucketTable map[string]models.BudgetBucket

// LegacyBucketTable is the numeric category scheme: 1 needs, 2 wants,
// 3 savings.
var LegacyBucketTable = BucketTable{
	"1": models.BucketNeeds,
	"2": models.BucketWants,
	"3": models.BucketSavings,
}

// Lookup returns the bucket registered for code.
func (t BucketTable) Lookup(code string) (models.BudgetBucket, bool) {
	if t == nil {
		return "", false
	}
	bucket, ok := t[strings.ToLower(strings.TrimSpace(code))]
	if !ok || !bucket.Valid() {
		return "", false
	}
	return bucket, true
}

// Merge returns a copy of t with the entries of other added, other taking
// precedence.
func (t BucketTable) Merge(other BucketTable) BucketTable {
	merged := make(BucketTable, len(t)+len(other))
	for k, v := range t {
		merged[strings.ToLower(k)] = v
	}
	for k, v := range other {
		merged[strings.ToLower(k)] = v
	}
	return merged
}

// Resolve picks the bucket of category: its own bucket first, then the
// table entry for its code.
func (t BucketTable) Resolve(category *models.Category) (models.BudgetBucket, bool) {
	if category.Bucket != nil && category.Bucket.Valid() {
		return *category.Bucket, true
	}
	if category.Code != nil {
		return t.Lookup(*category.Code)
	}
	return "", false
}
