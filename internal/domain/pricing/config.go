package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config is the textual form of Rules, as read from config files and the
// environment. Empty fields keep the default rule.
type Config struct {
	TaxRate          string `yaml:"taxRate" usage:"Tax rate applied to the subtotal, e.g. 0.18"`
	ShippingFee      string `yaml:"shippingFee" usage:"Delivery fee"`
	FreeShippingOver string `yaml:"freeShippingOver" usage:"Subtotal above which delivery is free"`
	BulkDiscountRate string `yaml:"bulkDiscountRate" usage:"Bulk discount rate, 0 disables it"`
	BulkDiscountOver string `yaml:"bulkDiscountOver" usage:"Subtotal above which the bulk discount applies"`
}

// Rules parses c on top of DefaultRules.
func (c Config) Rules() (Rules, error) {
	r := DefaultRules()
	for _, f := range []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"taxRate", c.TaxRate, &r.TaxRate},
		{"shippingFee", c.ShippingFee, &r.ShippingFee},
		{"freeShippingOver", c.FreeShippingOver, &r.FreeShippingOver},
		{"bulkDiscountRate", c.BulkDiscountRate, &r.BulkDiscountRate},
		{"bulkDiscountOver", c.BulkDiscountOver, &r.BulkDiscountOver},
	} {
		if f.value == "" {
			continue
		}
		d, err := decimal.NewFromString(f.value)
		if err != nil {
			return Rules{}, errors.Wrapf(err, "parse %s", f.name)
		}
		if d.IsNegative() {
			return Rules{}, errors.Errorf("%s must not be negative", f.name)
		}
		*f.dst = d
	}
	return r, nil
}
