package cmd

import (
	goflag "flag"

	"github.com/posener/complete"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

var completion = func() *complete.Complete {
	comp := complete.New("factom-cli", rootCmplCmd)
	comp.CLI.InstallName = "installcompletion"
	comp.CLI.UninstallName = "uninstallcompletion"
	return comp
}()

// installCompletionFlags exposes the completion install flags, which are
// defined on a standard library FlagSet, to cobra.
var installCompletionFlags = func() *flag.FlagSet {
	goflags := goflag.NewFlagSet("", goflag.ContinueOnError)
	completion.AddFlags(goflags)
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.AddGoFlagSet(goflags)
	return flags
}()

// Complete runs the CLI completion.
func Complete() bool {
	return completion.Complete()
}

// generateCmplFlags adds completion for all cmd.Flags() not already present in
// cmplFlags.
func generateCmplFlags(cmd *cobra.Command, cmplFlags complete.Flags) {
	// Due to a bug in cobra.Command.Flags(), we must call LocalFlags()
	// first to get any parent flags merged into cmd.Flags().
	// https://github.com/spf13/cobra/issues/412
	cmd.LocalFlags()
	cmd.Flags().VisitAll(func(flg *flag.Flag) {
		name := "--" + flg.Name
		// If the flag already has a custom completion, there is
		// nothing to do.
		if _, ok := cmplFlags[name]; ok {
			return
		}
		// Add a predictor
		var predict complete.Predictor = complete.PredictAnything
		if flg.Value.Type() == "bool" {
			predict = complete.PredictNothing
		}
		cmplFlags[name] = predict
		if len(flg.Shorthand) > 0 {
			cmplFlags["-"+flg.Shorthand] = predict
		}
	})
}

// mergeFlags returns a new complete.Flags that merges all flgs.
func mergeFlags(flgs ...complete.Flags) complete.Flags {
	var size int
	for _, flg := range flgs {
		size += len(flg)
	}
	f := make(complete.Flags, size)
	for _, flg := range flgs {
		for k, v := range flg {
			f[k] = v
		}
	}
	return f
}
