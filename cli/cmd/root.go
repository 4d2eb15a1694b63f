// MIT License
//
// Copyright 2018 Canonical Ledgers, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS
// IN THE SOFTWARE.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/Factom-Asset-Tokens/factom-api/api"
	"github.com/Factom-Asset-Tokens/factom-api/factom"
	_log "github.com/Factom-Asset-Tokens/factom-api/log"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/posener/complete"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var Revision string

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	cfgFile      string
	FactomClient = factom.NewClient()
	APIClient    = api.NewClient()
	Debug        bool
	timeout      time.Duration

	log = _log.New("cli")
)

func init() {
	cobra.OnInitialize(initConfig, initClients)
	if err := viper.BindPFlags(apiFlags); err != nil {
		panic(err)
	}
}

// initClients applies the API settings from the flags, environment and config
// file to the FactomClient.
func initClients() {
	Debug = viper.GetBool("debug")
	_log.Debug = Debug
	log = _log.New("cli")

	FactomClient.FactomdServer = viper.GetString("factomd")
	FactomClient.WalletdServer = viper.GetString("walletd")
	APIClient.LivefeeddServer = viper.GetString("livefeedd")
	timeout = viper.GetDuration("timeout")
	FactomClient.Factomd.Timeout = timeout
	FactomClient.Walletd.Timeout = timeout
	APIClient.Timeout = timeout
	if Debug {
		FactomClient.Factomd.DebugRequest = true
		FactomClient.Walletd.DebugRequest = true
		APIClient.DebugRequest = true
		FactomClient.Log = _log.New("factom").Entry
	}
}

var apiFlags = func() *flag.FlagSet {
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.StringP("factomd", "s", factom.FactomdDefault,
		"scheme://host:port/v2 for factomd")
	flags.StringP("walletd", "w", factom.WalletdDefault,
		"scheme://host:port/v2 for factom-walletd")
	flags.StringP("livefeedd", "l", api.LivefeeddDefault,
		"scheme://host:port for the livefeedd API")
	flags.Duration("timeout", 20*time.Second,
		"Timeout for all API requests (i.e. 10s, 1m)")
	flags.Bool("debug", false, "Print all RPC requests and responses")
	return flags
}()

// rootCmd represents the base command when called without any subcommands
var rootCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "factom-cli",
		Short: "Factom chain explorer",
		Long: `factom-cli reads the entries of Factom chains from factomd.

Chains are read from their head back to their first Entry Block, and the
entries are always printed in the order they were added to the chain.

API Settings

factom-cli needs to be able to query factomd. Use --factomd to specify the
factomd endpoint, if not on http://localhost:8088/v2. The events command
instead queries the livefeedd API, use --livefeedd if not on
http://localhost:8041.

Every API flag may also be set in the config file, $HOME/.factom-cli.yaml by
default, or in an environment variable such as FACTOM_CLI_FACTOMD.`,
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		PreRunE:       validateRunCompletionFlags,
		Run:           runCompletion,
	}

	cmd.Flags().AddFlagSet(installCompletionFlags)
	flags := cmd.PersistentFlags()
	flags.AddFlagSet(apiFlags)
	flags.StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.factom-cli.yaml)")

	generateCmplFlags(cmd, rootCmplCmd.Flags)
	return cmd
}()

var rootCmplCmd = complete.Command{
	Flags: mergeFlags(apiCmplFlags),
	Sub:   complete.Commands{"help": complete.Command{Sub: complete.Commands{}}},
}
var apiCmplFlags = complete.Flags{
	"--help":   complete.PredictNothing,
	"--config": complete.PredictFiles("*.yaml"),
}

func validateRunCompletionFlags(cmd *cobra.Command, _ []string) error {
	// Ensure that the install completion flags are not ever used with any
	// other flags.
	flags := cmd.Flags()
	installCompletionMode := false
	otherFlags := false
	flags.Visit(func(flg *flag.Flag) {
		switch flg.Name {
		case "installcompletion", "uninstallcompletion", "y":
			installCompletionMode = true
		default:
			otherFlags = true
		}
	})
	if installCompletionMode && otherFlags {
		return fmt.Errorf("--installcompletion and --uninstallcompletion " +
			"may not be used with any other flags")
	}
	return nil
}

func runCompletion(cmd *cobra.Command, _ []string) {
	// Complete() returns true if it attempts to install completion,
	// otherwise just output the help page.
	if !Complete() {
		cmd.Help()
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".factom-cli"
		// (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".factom-cli")
	}

	viper.SetEnvPrefix("FACTOM_CLI")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("Using config file: %v", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "config file: %v\n", err)
		os.Exit(1)
	}
}

// newContext returns a Context that is cancelled by SIGINT.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// parseChainIDs parses each of args as a Chain ID and rejects duplicates.
func parseChainIDs(args []string) ([]factom.Bytes32, error) {
	chainIDs := make([]factom.Bytes32, len(args))
	dupl := make(map[factom.Bytes32]struct{}, len(args))
	for i, arg := range args {
		id := &chainIDs[i]
		if err := id.Set(arg); err != nil {
			return nil, fmt.Errorf("invalid Chain ID %q: %w", arg, err)
		}
		if _, ok := dupl[*id]; ok {
			return nil, fmt.Errorf("duplicate: %v", id)
		}
		dupl[*id] = struct{}{}
	}
	return chainIDs, nil
}
