package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rollgate "github.com/rollgate/sdk-go"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Fetch the full flag set for a user and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		flags := client.GetAllFlags()
		out := make(map[string]any, len(flags))
		for key, v := range flags {
			switch v.Kind {
			case rollgate.FlagValueBool:
				out[key] = v.Bool
			case rollgate.FlagValueNumber:
				out[key] = v.Num
			case rollgate.FlagValueString:
				out[key] = v.Str
			default:
				out[key] = nil
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
}
