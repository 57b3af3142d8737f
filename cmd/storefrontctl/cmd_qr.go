package main

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/xenking/surplus-storefront/internal/domain/payment"
)

type qrFlags struct {
	amount string
	upi    payment.UPI
}

func newQRCmd() *cobra.Command {
	var flags qrFlags
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Print the UPI intent and QR image URL for an amount",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amount, err := decimal.NewFromString(flags.amount)
			if err != nil {
				return errors.Wrap(err, "parse amount")
			}
			if !amount.IsPositive() {
				return errors.New("amount must be positive")
			}
			amount = amount.Round(2)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Intent: %s\n", flags.upi.Intent(amount))
			fmt.Fprintf(out, "QR:     %s\n", flags.upi.QRImageURL(amount))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.amount, "amount", "", "Amount in rupees (required)")
	f.StringVar(&flags.upi.Handle, "handle", "surplus@okaxis", "UPI handle of the payee")
	f.StringVar(&flags.upi.PayeeName, "payee", "SURPLUS", "Payee name")
	f.StringVar(&flags.upi.QRBaseURL, "qr-base", "https://api.qrserver.com/v1/create-qr-code/", "QR image generator endpoint")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
