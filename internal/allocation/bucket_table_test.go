package allocation

import (
	"testing"

	"hearth/internal/models"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestBucketTable_Resolve(t *testing.T) {
	table := LegacyBucketTable.Merge(BucketTable{"Dining": models.BucketWants})

	tests := []struct {
		name     string
		category models.Category
		want     models.BudgetBucket
		ok       bool
	}{
		{"stored bucket wins over code", models.Category{Bucket: ptr(models.BucketSavings), Code: ptr("1")}, models.BucketSavings, true},
		{"legacy code 1", models.Category{Code: ptr("1")}, models.BucketNeeds, true},
		{"legacy code 2", models.Category{Code: ptr(" 2 ")}, models.BucketWants, true},
		{"legacy code 3", models.Category{Code: ptr("3")}, models.BucketSavings, true},
		{"tag matched case-insensitively", models.Category{Code: ptr("DINING")}, models.BucketWants, true},
		{"unknown code", models.Category{Code: ptr("7")}, "", false},
		{"neither bucket nor code", models.Category{}, "", false},
		{"invalid stored bucket falls back to code", models.Category{Bucket: ptr(models.BudgetBucket("luxury")), Code: ptr("2")}, models.BucketWants, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Resolve(&tt.category)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBucketTable_NilLookup(t *testing.T) {
	var table BucketTable
	_, ok := table.Lookup("1")
	assert.False(t, ok)
}
