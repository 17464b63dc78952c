package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aura-studio/lambdacore/internal/logging"
	"github.com/aura-studio/lambdacore/invoke"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var invokeCmd = &cobra.Command{
	Use:   "invoke FUNCTION",
	Short: "Invoke a function and print its result",
	Example: `  lambdacore invoke orders --payload '{"id":42}'
  lambdacore invoke orders --set id=42 --set customer.name=ada
  lambdacore invoke audit --payload @event.json --async`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoke,
}

func init() {
	flags := invokeCmd.Flags()
	flags.String("payload", "", "JSON payload, or @file to read it from a file")
	flags.StringArray("set", nil, "set a payload field as path=value (repeatable)")
	flags.Bool("async", false, "fire and forget instead of waiting for the result")
	flags.Duration("timeout", 0, "invocation timeout (default 30s)")
	_ = viper.BindPFlag("payload", flags.Lookup("payload"))
	_ = viper.BindPFlag("async", flags.Lookup("async"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
}

func runInvoke(cmd *cobra.Command, args []string) error {
	sets, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return err
	}
	payload, err := buildPayload(viper.GetString("payload"), sets)
	if err != nil {
		return err
	}

	debug := viper.GetBool("debug")
	opts := []invoke.Option{
		invoke.WithDebugMode(debug),
		invoke.WithLogger(logging.New(debug)),
	}
	if region := viper.GetString("region"); region != "" {
		opts = append(opts, invoke.WithRegion(region))
	}
	if timeout := viper.GetDuration("timeout"); timeout > 0 {
		opts = append(opts, invoke.WithDefaultTimeout(timeout))
	}

	ctx := cmd.Context()
	inv, err := invoke.New(ctx, args[0], opts...)
	if err != nil {
		return err
	}

	if viper.GetBool("async") {
		if err := inv.FireAndForget(ctx, payload); err != nil {
			return report(cmd, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "accepted: %s\n", inv.FunctionName())
		return nil
	}

	result, err := inv.RequestResponse(ctx, payload)
	if err != nil {
		return report(cmd, err)
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// report prints the remote stack trace of a function error before returning it.
func report(cmd *cobra.Command, err error) error {
	var fnErr *invoke.FunctionError
	if errors.As(err, &fnErr) {
		w := cmd.ErrOrStderr()
		fmt.Fprintf(w, "%s (%s): %s\n", fnErr.Name, fnErr.Kind, fnErr.Message)
		for _, frame := range fnErr.StackTrace {
			fmt.Fprintf(w, "    at %s\n", frame)
		}
	}
	return err
}
