package cmd

import (
	"github.com/Factom-Asset-Tokens/factom-api/factom"
	"github.com/posener/complete"
	"github.com/spf13/cobra"
)

var entriesHeight uint32

// entriesCmd represents the entries command
var entriesCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use: `
entries --height HEIGHT [--context] [--hex] CHAINID`[1:],
		Aliases: []string{"entry-block", "eblock"},
		Short:   "Print the entries of a chain at a single DBlock height",
		Long: `
Print the entries of the Entry Block of CHAINID in the Directory Block at
HEIGHT. Nothing is printed if the chain has no Entry Block at HEIGHT.
`[1:],
		Args: cobra.ExactArgs(1),
		RunE: runEntries,
	}
	rootCmd.AddCommand(cmd)
	rootCmplCmd.Sub["entries"] = entriesCmplCmd
	rootCmplCmd.Sub["help"].Sub["entries"] = complete.Command{}

	flags := cmd.Flags()
	flags.Uint32Var(&entriesHeight, "height", 0, "DBlock height")
	flags.BoolVar(&readOpts.IncludeContext, "context", false,
		"Print the hash, timestamp and height of each entry")
	flags.BoolVar(&readOpts.HexEncoded, "hex", false,
		"Print ExtIDs and Content as hex")
	cmd.MarkFlagRequired("height")

	generateCmplFlags(cmd, entriesCmplCmd.Flags)
	return cmd
}()

var entriesCmplCmd = complete.Command{
	Flags: mergeFlags(apiCmplFlags),
	Args:  complete.PredictAnything,
}

func runEntries(cmd *cobra.Command, args []string) error {
	chainIDs, err := parseChainIDs(args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	ctx, cancel := newContext()
	defer cancel()

	log.Debugf("Reading chain %v at height %v...", chainIDs[0], entriesHeight)
	it := factom.NewChainReader(FactomClient).
		EntriesAtHeight(chainIDs[0], entriesHeight, readOpts)
	for it.Next(ctx) {
		printEntry(cmd.OutOrStdout(), it.Entry())
	}
	return it.Err()
}
