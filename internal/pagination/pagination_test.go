package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsAndOffset(t *testing.T) {
	p := PageRequest{}
	p.Defaults()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = PageRequest{Page: 3, PageSize: 10}
	assert.Equal(t, 20, p.Offset())
}

func TestOrderBy(t *testing.T) {
	allowed := []string{"date", "amount"}
	tests := []struct {
		sort string
		want string
	}{
		{"", "date DESC"},
		{"amount", "amount ASC"},
		{"-amount", "amount DESC"},
		{"password", "date DESC"},
		{"-", "date DESC"},
	}
	for _, tt := range tests {
		p := PageRequest{Sort: tt.sort}
		assert.Equal(t, tt.want, p.OrderBy("date DESC", allowed...), "sort %q", tt.sort)
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[int](nil, 2, 10, 25)
	assert.Equal(t, 3, resp.TotalPages)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}
