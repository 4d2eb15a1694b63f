package cmd

import (
	"fmt"
	"time"

	"github.com/Factom-Asset-Tokens/factom-api/api"
	"github.com/posener/complete"
	"github.com/spf13/cobra"
)

var (
	eventsParams api.ParamsGetEvents
	eventsAll    bool
	eventsCount  bool
)

// eventsCmd represents the events command
var eventsCmd = func() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print the LiveFeed events recorded by livefeedd",
		Long: `Print the LiveFeed events recorded by livefeedd, oldest first.

Events are identified by an increasing id. Use --after with the id of the last
event already seen to only print newer events.`,
		Args: cobra.ExactArgs(0),
		RunE: runEvents,
	}
	rootCmd.AddCommand(cmd)
	rootCmplCmd.Sub["events"] = eventsCmplCmd
	rootCmplCmd.Sub["help"].Sub["events"] = complete.Command{}

	flags := cmd.Flags()
	flags.Int64Var(&eventsParams.After, "after", 0,
		"Only print events with an id greater than this")
	flags.IntVar(&eventsParams.Limit, "limit", 0,
		fmt.Sprintf("Maximum number of events per request, at most %v",
			api.MaxLimit))
	flags.BoolVar(&eventsAll, "all", false,
		"Keep requesting events until there are no more")
	flags.BoolVar(&eventsCount, "count", false,
		"Only print the number of recorded events")

	generateCmplFlags(cmd, eventsCmplCmd.Flags)
	return cmd
}()

var eventsCmplCmd = complete.Command{
	Flags: mergeFlags(apiCmplFlags),
}

func runEvents(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	ctx, cancel := newContext()
	defer cancel()
	out := cmd.OutOrStdout()

	if eventsCount {
		var res api.ResultGetEventCount
		if err := APIClient.Request(ctx, "get-event-count", nil, &res); err != nil {
			return err
		}
		fmt.Fprintf(out, "Events: %v\n", res.Count)
		return nil
	}

	params := eventsParams
	for {
		var res api.ResultGetEvents
		if err := APIClient.Request(ctx, "get-events", params, &res); err != nil {
			return err
		}
		for _, e := range res.Events {
			fmt.Fprintf(out, "Event: %v\nReceived: %v\nData: %v\n\n",
				e.ID, time.Unix(0, e.Received).UTC().Format(time.RFC3339Nano),
				e.Data)
			params.After = e.ID
		}
		if !eventsAll || !res.More {
			return nil
		}
	}
}
