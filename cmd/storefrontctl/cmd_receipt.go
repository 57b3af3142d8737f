package main

import (
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/xenking/surplus-storefront/internal/domain/order"
	"github.com/xenking/surplus-storefront/internal/invoice"
)

func newReceiptCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <order.json>",
		Short: "Render the plain-text receipt of a stored order",
		Long:  "Reads an order snapshot (\"-\" for stdin). Orders stored without totals\nare priced with the current rules.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := loadRules(root.rules)
			if err != nil {
				return err
			}
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return errors.Wrap(err, "read order")
			}
			snap, priced, err := order.DecodeSnapshot(data)
			if err != nil {
				return errors.Wrap(err, "decode order")
			}
			if !priced {
				snap.Totals = rules.Calculate(snap.Items)
			}
			return invoice.Render(cmd.OutOrStdout(), snap)
		},
	}
}
