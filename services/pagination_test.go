package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageOptions_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageOptions
		want PageOptions
	}{
		{"defaults", PageOptions{}, PageOptions{Take: 10, Page: 1, Order: OrderDesc}},
		{"negative", PageOptions{Take: -5, Page: -1}, PageOptions{Take: 10, Page: 1, Order: OrderDesc}},
		{"clamped", PageOptions{Take: 500, Page: 3, Order: "asc"}, PageOptions{Take: 100, Page: 3, Order: OrderAsc}},
		{"unknown order", PageOptions{Take: 5, Page: 1, Order: "sideways"}, PageOptions{Take: 5, Page: 1, Order: OrderDesc}},
		{"search trimmed", PageOptions{Search: "  hotel "}, PageOptions{Take: 10, Page: 1, Order: OrderDesc, Search: "hotel"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize(100))
		})
	}

	assert.Equal(t, 20, PageOptions{Take: 10, Page: 3}.Skip())
	assert.Equal(t, 0, PageOptions{Take: 10, Page: 1}.Skip())
	assert.Equal(t, math.MaxInt, PageOptions{Take: 10, Page: math.MaxInt/10 + 2}.Skip())
}

func TestPageOptions_BeyondLastPage(t *testing.T) {
	assert.False(t, PageOptions{Take: 10, Page: 2}.beyondLastPage(15))
	assert.True(t, PageOptions{Take: 10, Page: 3}.beyondLastPage(15))
	assert.True(t, PageOptions{Take: 10, Page: 1}.beyondLastPage(0))
	assert.True(t, PageOptions{Take: 10, Page: math.MaxInt}.beyondLastPage(15))
}

func TestNewPage(t *testing.T) {
	opts := PageOptions{Take: 10, Page: 2}

	page := NewPage([]int{1, 2, 3, 4, 5}, 15, opts)
	assert.Equal(t, PageMeta{Total: 15, Page: 2, LastPage: 2, Take: 10}, page.Meta)

	empty := NewPage[int](nil, 0, opts)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 0, empty.Meta.LastPage)

	exact := NewPage([]int{}, 20, opts)
	assert.Equal(t, 2, exact.Meta.LastPage)

	// Take не нормализован: деления на ноль нет
	zero := NewPage([]int{}, 5, PageOptions{})
	assert.Equal(t, 0, zero.Meta.LastPage)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\tmp`, escapeLike(`c:\tmp`))
}
