// Package flag parses the configuration of livefeedd from the command line and
// the environment.
package flag

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/posener/complete"
	"github.com/sirupsen/logrus"
)

var Revision string

// Environment variable name prefix
const envNamePrefix = "LIVEFEEDD_"

var (
	envNames = map[string]string{
		"debug": "DEBUG",

		"dbpath": "DB_PATH",

		"listen":         "LISTEN_ADDRESS",
		"maxmessagesize": "MAX_MESSAGE_SIZE",

		"apiaddress": "API_ADDRESS",
	}
	defaults = map[string]interface{}{
		"debug": false,

		"dbpath": "",

		"listen":         "127.0.0.1:8040",
		"maxmessagesize": uint64(16 << 20),

		"apiaddress": "",
	}
	descriptions = map[string]string{
		"debug": "Log debug messages",

		"dbpath": "Path to a SQLite database file to record every LiveFeed message in, empty disables recording",

		"listen":         "IPAddr:port# to accept the factomd LiveFeed connection on",
		"maxmessagesize": "Largest accepted LiveFeed message in bytes, 0 means no limit",

		"apiaddress": "IPAddr:port# to serve the JSON RPC API on, empty disables the API",
	}
	flags = complete.Flags{
		"-debug": complete.PredictNothing,

		"-dbpath": complete.PredictFiles("*.db"),

		"-listen":         complete.PredictAnything,
		"-maxmessagesize": complete.PredictAnything,

		"-apiaddress": complete.PredictAnything,

		"-y":                   complete.PredictNothing,
		"-installcompletion":   complete.PredictNothing,
		"-uninstallcompletion": complete.PredictNothing,
	}

	LogDebug bool

	DBPath string

	ListenAddress  string
	maxMessageSize uint64 // We parse the flag as unsigned.
	MaxMessageSize int32

	APIAddress string

	flagset    map[string]bool
	log        *logrus.Entry
	Completion *complete.Complete
)

func init() {
	flagVar(&LogDebug, "debug")

	flagVar(&DBPath, "dbpath")

	flagVar(&ListenAddress, "listen")
	flagVar(&maxMessageSize, "maxmessagesize")

	flagVar(&APIAddress, "apiaddress")

	// Add flags for self installing the CLI completion tool
	Completion = complete.New(os.Args[0], complete.Command{Flags: flags})
	Completion.CLI.InstallName = "installcompletion"
	Completion.CLI.UninstallName = "uninstallcompletion"
	Completion.AddFlags(nil)
}

func Parse() {
	flag.Parse()
	flagset = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { flagset[f.Name] = true })

	// Load options from environment variables if they haven't been
	// specified on the command line.
	loadFromEnv(&LogDebug, "debug")

	loadFromEnv(&DBPath, "dbpath")

	loadFromEnv(&ListenAddress, "listen")
	loadFromEnv(&maxMessageSize, "maxmessagesize")

	loadFromEnv(&APIAddress, "apiaddress")

	setupLogger()
}

// Validate logs the parsed options and reports any that cannot be used.
func Validate() error {
	log.Debugf("-listen         %#v", ListenAddress)
	log.Debugf("-maxmessagesize %v ", maxMessageSize)
	log.Debugf("-dbpath         %#v", DBPath)
	log.Debugf("-apiaddress     %#v", APIAddress)
	debugPrintln()

	if len(ListenAddress) == 0 {
		return fmt.Errorf("-listen: must not be empty")
	}
	if maxMessageSize > math.MaxInt32 {
		return fmt.Errorf("-maxmessagesize: %v exceeds %v",
			maxMessageSize, math.MaxInt32)
	}
	MaxMessageSize = int32(maxMessageSize)
	return nil
}

func flagVar(v interface{}, name string) {
	dflt := defaults[name]
	desc := description(name)
	switch v := v.(type) {
	case *string:
		flag.StringVar(v, name, dflt.(string), desc)
	case *uint64:
		flag.Uint64Var(v, name, dflt.(uint64), desc)
	case *bool:
		flag.BoolVar(v, name, dflt.(bool), desc)
	case flag.Value:
		flag.Var(v, name, desc)
	}
}

func loadFromEnv(v interface{}, flagName string) {
	if flagset[flagName] {
		return
	}
	eName := envName(flagName)
	eVar, ok := os.LookupEnv(eName)
	if len(eVar) > 0 {
		switch v := v.(type) {
		case *string:
			*v = eVar
		case *uint64:
			val, err := strconv.ParseUint(eVar, 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Environment Variable %v: "+
					"strconv.ParseUint(\"%v\", 10, 64): %v\n",
					eName, eVar, err)
				os.Exit(2)
			}
			*v = val
		case *bool:
			if ok {
				*v = true
			}
		}
	}
}

func debugPrintln() {
	if LogDebug {
		fmt.Println()
	}
}

func envName(flagName string) string {
	return envNamePrefix + envNames[flagName]
}
func description(flagName string) string {
	return fmt.Sprintf("%s\nEnvironment variable: %v",
		descriptions[flagName], envName(flagName))
}

func setupLogger() {
	_log := logrus.New()
	_log.Formatter = &logrus.TextFormatter{ForceColors: true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true}
	if LogDebug {
		_log.SetLevel(logrus.DebugLevel)
	}
	log = _log.WithField("pkg", "flag")
}
