package order

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/payment"
)

// EncodeSnapshot writes s in the storage schema.
func EncodeSnapshot(s *Snapshot) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("invoiceNo", func(e *jx.Encoder) { e.Str(s.InvoiceNumber) })
		e.Field("date", func(e *jx.Encoder) { e.Str(s.Date.UTC().Format(time.RFC3339)) })
		e.Field("customer", func(e *jx.Encoder) {
			c := s.Customer
			e.Obj(func(e *jx.Encoder) {
				for _, f := range []struct{ k, v string }{
					{"fullName", c.FullName},
					{"email", c.Email},
					{"phone", c.Phone},
					{"address", c.Address},
					{"street", c.Street},
					{"apartment", c.Apartment},
					{"city", c.City},
					{"state", c.State},
					{"pinCode", c.PinCode},
				} {
					e.Field(f.k, func(e *jx.Encoder) { e.Str(f.v) })
				}
			})
		})
		e.Field("items", func(e *jx.Encoder) { e.Raw(cart.EncodeItems(s.Items)) })
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(string(s.PaymentMethod)) })
		if s.PaymentHint != "" {
			e.Field("paymentHint", func(e *jx.Encoder) { e.Str(s.PaymentHint) })
		}
		e.Field("totals", func(e *jx.Encoder) {
			t := s.Totals
			e.Obj(func(e *jx.Encoder) {
				for _, f := range []struct {
					k string
					v decimal.Decimal
				}{
					{"subtotal", t.Subtotal},
					{"tax", t.Tax},
					{"shipping", t.Shipping},
					{"discount", t.Discount},
					{"total", t.Total},
					{"taxRate", t.TaxRate},
				} {
					e.Field(f.k, func(e *jx.Encoder) { e.Num(jx.Num(f.v.String())) })
				}
			})
		})
	})
	return e.Bytes()
}

// DecodeSnapshot parses a stored order. Snapshots without an "items" array
// are rejected; a snapshot without totals decodes with zero totals and
// priced reports false.
func DecodeSnapshot(data []byte) (s *Snapshot, priced bool, err error) {
	s = &Snapshot{}
	hasItems := false
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return nil, false, errors.New("order is not a JSON object")
	}
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			items, err := cart.DecodeItems(raw)
			if err != nil {
				return err
			}
			s.Items = cart.NormalizeAll(items)
			hasItems = raw.Type() == jx.Array
			return nil
		case "customer":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				v, err := str(d)
				if err != nil {
					return err
				}
				c := &s.Customer
				switch key {
				case "fullName":
					c.FullName = v
				case "email":
					c.Email = v
				case "phone":
					c.Phone = v
				case "address":
					c.Address = v
				case "street":
					c.Street = v
				case "apartment":
					c.Apartment = v
				case "city":
					c.City = v
				case "state":
					c.State = v
				case "pinCode":
					c.PinCode = v
				}
				return nil
			})
		case "totals":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			priced = true
			return d.Obj(func(d *jx.Decoder, key string) error {
				v, err := str(d)
				if err != nil {
					return err
				}
				amount, err := decimal.NewFromString(v)
				if err != nil {
					return errors.Wrapf(err, "totals.%s", key)
				}
				t := &s.Totals
				switch key {
				case "subtotal":
					t.Subtotal = amount
				case "tax":
					t.Tax = amount
				case "shipping":
					t.Shipping = amount
				case "discount":
					t.Discount = amount
				case "total":
					t.Total = amount
				case "taxRate":
					t.TaxRate = amount
				}
				return nil
			})
		}

		v, err := str(d)
		if err != nil {
			return err
		}
		switch key {
		case "invoiceNo", "invoiceNumber":
			s.InvoiceNumber = v
		case "date":
			if t, perr := time.Parse(time.RFC3339, v); perr == nil {
				s.Date = t
			}
		case "paymentMethod":
			if m, perr := payment.ParseMethod(v); perr == nil {
				s.PaymentMethod = m
			}
		case "paymentHint":
			s.PaymentHint = v
		}
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "decode order")
	}
	if !hasItems {
		return nil, false, errors.New("order has no items")
	}
	return s, priced, nil
}

// str reads a string or number as text; anything else reads as "".
func str(d *jx.Decoder) (string, error) {
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
