package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	rollgate "github.com/rollgate/sdk-go"
)

var variationType string

var variationCmd = &cobra.Command{
	Use:   "variation <flag-key> <fallback>",
	Short: "Evaluate a single flag, falling back to the given value on miss or mismatch",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, rawFallback := args[0], args[1]

		cfg, err := buildConfig()
		if err != nil {
			return err
		}

		client, err := rollgate.Init(cfg, rollgate.NewUser(userKey))
		if err != nil {
			return fmt.Errorf("init client: %w", err)
		}
		defer client.Close()

		waitForReady(client)

		switch variationType {
		case "bool":
			fallback, err := strconv.ParseBool(rawFallback)
			if err != nil {
				return fmt.Errorf("fallback %q is not a bool: %w", rawFallback, err)
			}
			fmt.Println(client.BoolVariation(key, fallback))
		case "number":
			fallback, err := strconv.ParseFloat(rawFallback, 64)
			if err != nil {
				return fmt.Errorf("fallback %q is not a number: %w", rawFallback, err)
			}
			fmt.Println(client.DoubleVariation(key, fallback))
		case "string":
			fmt.Println(client.StringVariation(key, rawFallback))
		default:
			return fmt.Errorf("unrecognized --type %q, want bool, number, or string", variationType)
		}
		return nil
	},
}

func init() {
	variationCmd.Flags().StringVar(&variationType, "type", "bool", "flag type: bool, number, or string")
	rootCmd.AddCommand(variationCmd)
}
