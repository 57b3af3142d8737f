package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// DecodeItems parses a stored cart. Every schema the storefront has written
// is accepted: ids and quantities may be numbers or strings, color and image
// may live inside "variant" or "variants", unknown fields are skipped.
// A JSON null or empty input is an empty cart.
func DecodeItems(data []byte) ([]RawItem, error) {
	if len(data) == 0 {
		return nil, nil
	}
	d := jx.DecodeBytes(data)
	switch d.Next() {
	case jx.Null:
		return nil, d.Null()
	case jx.Array:
	default:
		return nil, errors.New("cart is not a JSON array")
	}

	var items []RawItem
	if err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() != jx.Object {
			return d.Skip()
		}
		item, err := decodeRawItem(d)
		if err != nil {
			return err
		}
		items = append(items, item)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return items, nil
}

func decodeRawItem(d *jx.Decoder) (RawItem, error) {
	var it RawItem
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "variant":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			rv, err := decodeRawVariant(d)
			if err != nil {
				return err
			}
			it.Variant = &rv
			return nil
		case "variants":
			if d.Next() != jx.Array {
				return d.Skip()
			}
			return d.Arr(func(d *jx.Decoder) error {
				if d.Next() != jx.Object {
					it.Variants = append(it.Variants, RawVariant{})
					return d.Skip()
				}
				rv, err := decodeRawVariant(d)
				if err != nil {
					return err
				}
				it.Variants = append(it.Variants, rv)
				return nil
			})
		}

		v, err := scalar(d)
		if err != nil {
			return err
		}
		switch key {
		case "cartId":
			it.CartID = v
		case "productId":
			it.ProductID = v
		case "_id":
			it.LegacyID = v
		case "id":
			it.ID = v
		case "name":
			it.Name = v
		case "description":
			it.Description = v
		case "price":
			if p, perr := decimal.NewFromString(v); perr == nil {
				it.Price = p
			}
		case "size":
			it.Size = v
		case "color":
			it.Color = v
		case "image":
			it.Image = v
		case "qty", "quantity":
			if it.Qty == "" {
				it.Qty = v
			}
		}
		return nil
	})
	return it, err
}

func decodeRawVariant(d *jx.Decoder) (RawVariant, error) {
	var rv RawVariant
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key == "images" {
			if d.Next() != jx.Array {
				return d.Skip()
			}
			return d.Arr(func(d *jx.Decoder) error {
				s, err := scalar(d)
				if err != nil {
					return err
				}
				rv.Images = append(rv.Images, s)
				return nil
			})
		}
		s, err := scalar(d)
		if err != nil {
			return err
		}
		switch key {
		case "color":
			rv.Color = s
		case "colorName":
			rv.ColorName = s
		case "image":
			rv.Image = s
		}
		return nil
	})
	return rv, err
}

// scalar reads a string or number as text. Other values are skipped and
// read as empty.
func scalar(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", d.Skip()
	}
}

// EncodeItems writes items in the current storage schema.
func EncodeItems(items []LineItem) []byte {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			e.Obj(func(e *jx.Encoder) {
				e.Field("cartId", func(e *jx.Encoder) { e.Str(it.CartID) })
				e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
				if it.Description != "" {
					e.Field("description", func(e *jx.Encoder) { e.Str(it.Description) })
				}
				e.Field("price", func(e *jx.Encoder) { e.Num(jx.Num(it.Price.String())) })
				e.Field("size", func(e *jx.Encoder) { e.Str(it.Size) })
				e.Field("color", func(e *jx.Encoder) { e.Str(it.Color) })
				e.Field("image", func(e *jx.Encoder) { e.Str(it.Image) })
				e.Field("qty", func(e *jx.Encoder) { e.Int(it.Quantity) })
			})
		}
	})
	return e.Bytes()
}
