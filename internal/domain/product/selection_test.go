package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func testProduct() Product {
	return Product{
		ID: "p1",
		Variants: []Variant{
			{Color: "red", Images: []string{"r1.jpg", "r2.jpg", "r3.jpg"}},
			{Color: "green", Images: []string{"g1.jpg"}},
		},
		Sizes: []Size{
			{Name: "S", Stock: intPtr(0)},
			{Name: "M", Stock: intPtr(2)},
			{Name: "L"},
		},
	}
}

func TestResolve(t *testing.T) {
	p := testProduct()

	sel := Resolve(p, SelectionRequest{ColorIndex: 0, ImageIndex: 2, Size: "M"})
	assert.Equal(t, "red", sel.Color())
	assert.Equal(t, "r3.jpg", sel.MainImage)
	assert.Equal(t, "r1.jpg", sel.CartImage())
	assert.Equal(t, "M", sel.Size)
	require.Len(t, sel.Sizes, 3)
	assert.False(t, sel.Sizes[0].Available)
	assert.True(t, sel.Sizes[1].Selected)
	assert.True(t, sel.Sizes[2].Available)
}

func TestResolve_OutOfRangeFallsBack(t *testing.T) {
	sel := Resolve(testProduct(), SelectionRequest{ColorIndex: 9, ImageIndex: -1})
	assert.Equal(t, 0, sel.ColorIndex)
	assert.Equal(t, "red", sel.Color())
	assert.Equal(t, 0, sel.ImageIndex)
	assert.Equal(t, "r1.jpg", sel.MainImage)
}

func TestResolve_NoVariants(t *testing.T) {
	sel := Resolve(Product{ID: "p2"}, SelectionRequest{ColorIndex: 1})
	assert.Nil(t, sel.Variant)
	assert.Empty(t, sel.Color())
	assert.Empty(t, sel.CartImage())
	assert.Empty(t, sel.MainImage)
}

func TestResolve_DefaultSize(t *testing.T) {
	untracked := Product{Sizes: []Size{{Name: "One"}, {Name: "Two"}}}
	assert.Equal(t, "One", Resolve(untracked, SelectionRequest{}).Size)

	assert.Empty(t, Resolve(testProduct(), SelectionRequest{}).Size)
}

func TestOrderable(t *testing.T) {
	p := testProduct()

	require.NoError(t, Resolve(p, SelectionRequest{Size: "M"}).Orderable(p))
	require.NoError(t, Resolve(p, SelectionRequest{Size: "L"}).Orderable(p))
	require.ErrorIs(t, Resolve(p, SelectionRequest{}).Orderable(p), ErrSizeRequired)

	var unavailable *SizeUnavailableError
	require.ErrorAs(t, Resolve(p, SelectionRequest{Size: "S"}).Orderable(p), &unavailable)
	assert.Equal(t, "S", unavailable.Size)

	var unknown *UnknownSizeError
	require.ErrorAs(t, Resolve(p, SelectionRequest{Size: "XL"}).Orderable(p), &unknown)

	noSizes := Product{ID: "p3"}
	require.NoError(t, Resolve(noSizes, SelectionRequest{}).Orderable(noSizes))
}

func TestTracksStock(t *testing.T) {
	assert.True(t, testProduct().TracksStock())
	assert.False(t, Product{Sizes: []Size{{Name: "M"}}}.TracksStock())
	assert.True(t, Size{Name: "M"}.Available())
	assert.False(t, Size{Name: "M", Stock: intPtr(0)}.Available())
}
