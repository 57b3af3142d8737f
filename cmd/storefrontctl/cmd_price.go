package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/surplus-storefront/internal/domain/cart"
	"github.com/xenking/surplus-storefront/internal/domain/pricing"
	"github.com/xenking/surplus-storefront/internal/invoice"
)

func newPriceCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "price <cart.json>",
		Short: "Normalize a stored cart and print its totals",
		Long:  "Reads a cart in any stored schema (\"-\" for stdin), merges duplicate lines\nand prints line and order totals.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(root.rules)
			if err != nil {
				return err
			}
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return errors.Wrap(err, "read cart")
			}
			raws, err := cart.DecodeItems(data)
			if err != nil {
				return errors.Wrap(err, "decode cart")
			}
			items := cart.NormalizeAll(raws)
			totals := rules.Calculate(items).Rounded()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CART ID\tNAME\tQTY\tAMOUNT")
			for _, it := range items {
				line := pricing.Subtotal([]cart.LineItem{it}).Round(2)
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.CartID, it.Name, it.Quantity, invoice.Money(line))
			}
			fmt.Fprintf(tw, "\t\tSubtotal\t%s\n", invoice.Money(totals.Subtotal))
			fmt.Fprintf(tw, "\t\tTax\t%s\n", invoice.Money(totals.Tax))
			fmt.Fprintf(tw, "\t\tDelivery\t%s\n", invoice.Money(totals.Shipping))
			if totals.Discount.IsPositive() {
				fmt.Fprintf(tw, "\t\tDiscount\t-%s\n", invoice.Money(totals.Discount))
			}
			fmt.Fprintf(tw, "\t\tTotal\t%s\n", invoice.Money(totals.Total))
			return tw.Flush()
		},
	}
}
