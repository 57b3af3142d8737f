package cart

import (
	"github.com/shopspring/decimal"
)

// RawItem is a cart line as found in storage. Older writers used different
// field names and nested the color and image inside variant objects, so
// every location is kept until Normalize picks one.
type RawItem struct {
	CartID      string
	ProductID   string // "productId"
	LegacyID    string // "_id"
	ID          string // "id"
	Name        string
	Description string
	Price       decimal.Decimal
	Size        string
	Color       string
	Image       string
	// Qty holds the quantity exactly as stored, either a JSON number or the
	// contents of a JSON string. Empty means absent.
	Qty      string
	Variant  *RawVariant
	Variants []RawVariant
}

// RawVariant is the variant object embedded in legacy cart lines.
type RawVariant struct {
	Color     string
	ColorName string
	Image     string
	Images    []string
}

// Normalize resolves a stored line into a LineItem. The product id, image,
// color and quantity are taken from the first location that carries them.
func Normalize(raw RawItem) LineItem {
	productID := firstNonEmpty(raw.ProductID, raw.LegacyID, raw.ID)

	var variantColor, variantColorName, variantImage, variantFirstImage string
	if v := raw.Variant; v != nil {
		variantColor = v.Color
		variantColorName = v.ColorName
		variantImage = v.Image
		if len(v.Images) > 0 {
			variantFirstImage = v.Images[0]
		}
	}
	var firstVariantImage string
	if len(raw.Variants) > 0 && len(raw.Variants[0].Images) > 0 {
		firstVariantImage = raw.Variants[0].Images[0]
	}

	cartID := raw.CartID
	if cartID == "" {
		cartID = Key(productID, raw.Size, firstNonEmpty(raw.Color, variantColor, variantColorName))
	}

	price := raw.Price
	if price.IsNegative() {
		price = decimal.Zero
	}

	return LineItem{
		CartID:      cartID,
		ProductID:   productID,
		Name:        raw.Name,
		Description: raw.Description,
		Price:       price,
		Size:        raw.Size,
		Color:       firstNonEmpty(raw.Color, variantColor),
		Image:       firstNonEmpty(raw.Image, variantImage, variantFirstImage, firstVariantImage),
		Quantity:    parseQuantity(raw.Qty),
	}
}

// Normalize fills the cart id and quantity of an item built in memory.
// Applying it to an already normalized item returns the item unchanged.
func (it LineItem) Normalize() LineItem {
	if it.CartID == "" {
		it.CartID = Key(it.ProductID, it.Size, it.Color)
	}
	if it.Quantity < 1 {
		it.Quantity = 1
	}
	if it.Price.IsNegative() {
		it.Price = decimal.Zero
	}
	return it
}

// NormalizeAll normalizes stored lines and merges lines that resolve to the
// same cart id, keeping the first position and summing quantities.
func NormalizeAll(raws []RawItem) []LineItem {
	items := make([]LineItem, len(raws))
	for i, r := range raws {
		items[i] = Normalize(r)
	}
	return merge(items)
}

// Canonical normalizes every item and merges duplicates. It is applied to
// every list before it is written.
func Canonical(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		out[i] = it.Normalize()
	}
	return merge(out)
}

func merge(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	pos := make(map[string]int, len(items))
	for _, it := range items {
		if i, ok := pos[it.CartID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		pos[it.CartID] = len(out)
		out = append(out, it)
	}
	return out
}

// parseQuantity reads a stored quantity. Missing or non-numeric values
// count as one unit; fractions are truncated.
func parseQuantity(s string) int {
	if s == "" {
		return 1
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 1
	}
	n := d.IntPart()
	if n < 1 {
		return 1
	}
	return int(n)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
