package cmd

import (
	"fmt"

	"github.com/Factom-Asset-Tokens/factom-api/factom"
	"github.com/posener/complete"
	"github.com/spf13/cobra"
)

// heightsCmd represents the heights command
var heightsCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heights",
		Short: "Print the block heights of factomd",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx, cancel := newContext()
			defer cancel()
			var h factom.Heights
			if err := h.Get(ctx, FactomClient); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), `Directory Block: %v
Leader: %v
Entry Block: %v
Entry: %v
`,
				h.DirectoryBlock, h.Leader, h.EntryBlock, h.Entry)
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
	rootCmplCmd.Sub["heights"] = heightsCmplCmd
	rootCmplCmd.Sub["help"].Sub["heights"] = complete.Command{}
	generateCmplFlags(cmd, heightsCmplCmd.Flags)
	return cmd
}()

var heightsCmplCmd = complete.Command{
	Flags: mergeFlags(apiCmplFlags),
}

var factomdOnly bool

// propertiesCmd represents the properties command
var propertiesCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "properties",
		Aliases: []string{"version"},
		Short:   "Print the versions of factom-cli, factomd and factom-walletd",
		Args:    cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ctx, cancel := newContext()
			defer cancel()
			var p factom.Properties
			if err := p.Get(ctx, FactomClient, factomdOnly); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "factom-cli: %v\n", Revision)
			fmt.Fprintf(out, "factomd: %v\nfactomd API: %v\n",
				p.FactomdVersion, p.FactomdAPIVersion)
			if !factomdOnly {
				fmt.Fprintf(out,
					"factom-walletd: %v\nfactom-walletd API: %v\n",
					p.WalletdVersion, p.WalletdAPIVersion)
			}
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
	rootCmplCmd.Sub["properties"] = propertiesCmplCmd
	rootCmplCmd.Sub["help"].Sub["properties"] = complete.Command{}

	cmd.Flags().BoolVar(&factomdOnly, "factomd-only", false,
		"Do not query factom-walletd")

	generateCmplFlags(cmd, propertiesCmplCmd.Flags)
	return cmd
}()

var propertiesCmplCmd = complete.Command{
	Flags: mergeFlags(apiCmplFlags),
}
