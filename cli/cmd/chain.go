package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/Factom-Asset-Tokens/factom-api/db"
	"github.com/Factom-Asset-Tokens/factom-api/factom"
	"github.com/posener/complete"
	"github.com/spf13/cobra"
)

var readOpts factom.ReadOptions
var exportPath string

// chainCmd represents the chain command
var chainCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		DisableFlagsInUseLine: true,
		Use: `
chain [--from-height HEIGHT] [--context] [--hex] [--export PATH] CHAINID...`[1:],
		Aliases: []string{"chains", "read"},
		Short:   "Print all entries of one or more chains",
		Long: `
Print every entry of each CHAINID, in the order they were added to the chain.

A single chain is printed while it is read. Multiple chains are read in
parallel and then printed in the order given.

Use --from-height to skip all entries in Entry Blocks below HEIGHT.

Use --export to save the entries into the SQLite database at PATH instead of
printing them. Only entries above the highest stored height of each chain are
read, so repeating an export only adds new entries.
`[1:],
		Args: cobra.MinimumNArgs(1),
		RunE: runChain,
	}
	rootCmd.AddCommand(cmd)
	rootCmplCmd.Sub["chain"] = chainCmplCmd
	rootCmplCmd.Sub["help"].Sub["chain"] = complete.Command{}

	flags := cmd.Flags()
	flags.Uint32Var(&readOpts.FromHeight, "from-height", 0,
		"Skip Entry Blocks below this DBlock height")
	flags.BoolVar(&readOpts.IncludeContext, "context", false,
		"Print the hash, timestamp and height of each entry")
	flags.BoolVar(&readOpts.HexEncoded, "hex", false,
		"Print ExtIDs and Content as hex")
	flags.StringVar(&exportPath, "export", "",
		"Save the entries into the SQLite database at this path")

	generateCmplFlags(cmd, chainCmplCmd.Flags)
	return cmd
}()

var chainCmplCmd = complete.Command{
	Flags: mergeFlags(apiCmplFlags, complete.Flags{
		"--export": complete.PredictFiles("*"),
	}),
	Args: complete.PredictAnything,
}

func runChain(cmd *cobra.Command, args []string) error {
	chainIDs, err := parseChainIDs(args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	ctx, cancel := newContext()
	defer cancel()
	r := factom.NewChainReader(FactomClient)

	if len(exportPath) > 0 {
		return exportChains(ctx, cmd, r, chainIDs)
	}

	out := cmd.OutOrStdout()
	if len(chainIDs) == 1 {
		log.Debugf("Reading chain %v...", chainIDs[0])
		it := r.ReadChain(chainIDs[0], readOpts)
		for it.Next(ctx) {
			printEntry(out, it.Entry())
		}
		return it.Err()
	}

	log.Debugf("Reading %v chains...", len(chainIDs))
	chains, err := r.ReadChains(ctx, chainIDs, readOpts)
	if err != nil {
		return err
	}
	for _, chainID := range chainIDs {
		for _, e := range chains[chainID] {
			printEntry(out, e)
		}
	}
	return nil
}

func exportChains(ctx context.Context, cmd *cobra.Command,
	r *factom.ChainReader, chainIDs []factom.Bytes32) error {
	unlock, err := db.Lock(exportPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Error(err)
		}
	}()
	conn, err := db.Open(ctx, exportPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			log.Error(err)
		}
	}()

	for _, chainID := range chainIDs {
		opts := factom.ReadOptions{FromHeight: readOpts.FromHeight,
			IncludeContext: true}
		height, found, err := db.SelectLatestHeight(conn, chainID)
		if err != nil {
			return err
		}
		if found && height+1 > opts.FromHeight {
			opts.FromHeight = height + 1
		}
		log.Debugf("Reading chain %v from height %v...",
			chainID, opts.FromHeight)

		es, err := r.ReadChain(chainID, opts).All(ctx)
		if err != nil {
			return err
		}
		n, err := db.InsertEntries(conn, es)
		if err != nil {
			return fmt.Errorf("chain %v: %w", chainID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Chain ID: %v\nNew Entries: %v\n\n",
			chainID, n)
	}
	return nil
}

func printEntry(w io.Writer, e factom.ChainEntry) {
	fmt.Fprintf(w, "Chain ID: %v\n", e.ChainID)
	if e.Context != nil {
		fmt.Fprintf(w, "Entry Hash: %v\nTimestamp: %v\nHeight: %v\n",
			e.Context.Hash, e.Context.Timestamp.Unix(), e.Context.Height)
	}
	fmt.Fprintln(w, "ExtIDs:")
	for i, extID := range e.ExtIDs {
		fmt.Fprintf(w, "  %v: %s\n", i, formatData(extID))
	}
	fmt.Fprintf(w, "Content: %s\n\n", formatData(e.Content))
}

func formatData(data []byte) string {
	if readOpts.HexEncoded {
		return string(data)
	}
	return fmt.Sprintf("%q", data)
}
