// Command storefrontctl prices carts, renders receipts and builds UPI QR
// links from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	rules string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Offline tools for the SUR-PLUS storefront",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVar(&flags.rules, "rules", "", "YAML file overriding pricing rules")

	root.AddCommand(newPriceCmd(&flags))
	root.AddCommand(newReceiptCmd(&flags))
	root.AddCommand(newQRCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
