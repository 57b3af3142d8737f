// Package catalog reads product catalogs from JSON documents and files and
// serves them as a product.Repository.
package catalog

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/surplus-storefront/internal/domain/product"
)

// Decode parses a catalog document: either an array of products or an
// object with a "products" array. Product ids are read from "id" or "_id";
// sizes may be plain strings or {"name"|"size", "stock"} objects.
func Decode(data []byte) ([]product.Product, error) {
	d := jx.DecodeBytes(data)
	switch d.Next() {
	case jx.Array:
		return decodeProducts(d)
	case jx.Object:
		var out []product.Product
		found := false
		err := d.Obj(func(d *jx.Decoder, key string) error {
			if key != "products" {
				return d.Skip()
			}
			found = true
			var err error
			out, err = decodeProducts(d)
			return err
		})
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errors.New(`catalog object has no "products"`)
		}
		return out, nil
	default:
		return nil, errors.New("catalog must be a JSON array or object")
	}
}

func decodeProducts(d *jx.Decoder) ([]product.Product, error) {
	var out []product.Product
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := DecodeProduct(d)
		if err != nil {
			return err
		}
		if p.ID == "" {
			return errors.Errorf("product %q has no id", p.Name)
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return out, nil
}

// DecodeProduct reads one product object.
func DecodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "variants":
			v, err := DecodeVariants(d)
			p.Variants = v
			return err
		case "sizes":
			s, err := DecodeSizes(d)
			p.Sizes = s
			return err
		case "price":
			v, err := text(d)
			if err != nil {
				return err
			}
			if v == "" {
				return nil
			}
			price, err := decimal.NewFromString(v)
			if err != nil {
				return errors.Wrap(err, "price")
			}
			p.Price = price
			return nil
		}

		v, err := text(d)
		if err != nil {
			return err
		}
		switch key {
		case "id", "_id":
			if p.ID == "" {
				p.ID = v
			}
		case "name":
			p.Name = v
		case "description":
			p.Description = v
		case "category":
			p.Category = v
		}
		return nil
	})
	return p, err
}

// DecodeVariants reads a variants array.
func DecodeVariants(d *jx.Decoder) ([]product.Variant, error) {
	if d.Next() != jx.Array {
		return nil, d.Skip()
	}
	var out []product.Variant
	err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() != jx.Object {
			return d.Skip()
		}
		var v product.Variant
		err := d.Obj(func(d *jx.Decoder, key string) error {
			if key == "images" {
				if d.Next() != jx.Array {
					return d.Skip()
				}
				return d.Arr(func(d *jx.Decoder) error {
					s, err := text(d)
					if err == nil && s != "" {
						v.Images = append(v.Images, s)
					}
					return err
				})
			}
			s, err := text(d)
			if err != nil {
				return err
			}
			switch key {
			case "color":
				v.Color = s
			case "colorCode":
				v.ColorCode = s
			}
			return nil
		})
		out = append(out, v)
		return err
	})
	return out, err
}

// DecodeSizes reads a sizes array.
func DecodeSizes(d *jx.Decoder) ([]product.Size, error) {
	if d.Next() != jx.Array {
		return nil, d.Skip()
	}
	var out []product.Size
	err := d.Arr(func(d *jx.Decoder) error {
		switch d.Next() {
		case jx.String, jx.Number:
			s, err := text(d)
			if err != nil {
				return err
			}
			out = append(out, product.Size{Name: s})
			return nil
		case jx.Object:
		default:
			return d.Skip()
		}
		var s product.Size
		err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "name", "size":
				v, err := text(d)
				s.Name = v
				return err
			case "stock":
				if d.Next() != jx.Number {
					return d.Skip()
				}
				n, err := d.Int()
				if err != nil {
					return err
				}
				s.Stock = &n
				return nil
			}
			return d.Skip()
		})
		if s.Name != "" {
			out = append(out, s)
		}
		return err
	})
	return out, err
}

// EncodeProduct writes p in the catalog schema.
func EncodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("price", func(e *jx.Encoder) { e.Num(jx.Num(p.Price.String())) })
		e.Field("variants", func(e *jx.Encoder) { EncodeVariants(e, p.Variants) })
		e.Field("sizes", func(e *jx.Encoder) { EncodeSizes(e, p.Sizes) })
	})
}

// EncodeVariants writes a variants array.
func EncodeVariants(e *jx.Encoder, variants []product.Variant) {
	e.Arr(func(e *jx.Encoder) {
		for _, v := range variants {
			e.Obj(func(e *jx.Encoder) {
				e.Field("color", func(e *jx.Encoder) { e.Str(v.Color) })
				e.Field("colorCode", func(e *jx.Encoder) { e.Str(v.ColorCode) })
				e.Field("images", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, img := range v.Images {
							e.Str(img)
						}
					})
				})
			})
		}
	})
}

// EncodeSizes writes a sizes array. Stock is omitted when untracked.
func EncodeSizes(e *jx.Encoder, sizes []product.Size) {
	e.Arr(func(e *jx.Encoder) {
		for _, s := range sizes {
			e.Obj(func(e *jx.Encoder) {
				e.Field("name", func(e *jx.Encoder) { e.Str(s.Name) })
				if s.Stock != nil {
					e.Field("stock", func(e *jx.Encoder) { e.Int(*s.Stock) })
				}
			})
		}
	})
}

func text(d *jx.Decoder) (string, error) {
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
