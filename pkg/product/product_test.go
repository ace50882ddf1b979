package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaming(t *testing.T) {
	assert.Equal(t, "E1_Red", GroupKey("E1", "Red"))
	assert.Equal(t, "Shirt Red E1", GroupName("Shirt", "Red", "E1"))
	assert.Equal(t, "E1-Red-S", VariantSKU("E1", "Red", "S"))
	assert.Equal(t, "E1-Red-", VariantSKU("E1", "Red", ""))
}

func TestInStock(t *testing.T) {
	variants := []Variant{
		{SKU: "a", InventoryLevel: 5},
		{SKU: "b", InventoryLevel: 0},
		{SKU: "c", InventoryLevel: -1},
		{SKU: "d", InventoryLevel: 1},
	}

	got := InStock(variants)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "a", got[0].SKU)
		assert.Equal(t, "d", got[1].SKU)
	}
	assert.Len(t, variants, 4, "input must not be modified")
	assert.Empty(t, InStock(nil))
}

func TestWithVariantsCopies(t *testing.T) {
	g := Group{Name: "Shirt Red E1", Variants: []Variant{{SKU: "a"}, {SKU: "b"}}}
	filtered := g.WithVariants(g.Variants[:1])

	assert.Len(t, filtered.Variants, 1)
	assert.Len(t, g.Variants, 2)
	assert.Equal(t, g.Name, filtered.Name)
}

func TestFindVariantAndSize(t *testing.T) {
	variants := []Variant{
		{SKU: "E1-Red-S", OptionValues: []OptionValue{SizeOption("S")}},
		{SKU: "E1-Red-M"},
	}

	v, ok := FindVariant(variants, "E1-Red-S")
	assert.True(t, ok)
	assert.Equal(t, "S", v.Size())
	assert.Equal(t, SizeOptionName, v.OptionValues[0].OptionDisplayName)

	v, ok = FindVariant(variants, "E1-Red-M")
	assert.True(t, ok)
	assert.Equal(t, "", v.Size())

	_, ok = FindVariant(variants, "E1-Red-L")
	assert.False(t, ok)
}
