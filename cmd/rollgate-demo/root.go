package main

import (
	"time"

	"github.com/spf13/cobra"

	rollgate "github.com/rollgate/sdk-go"
)

var (
	mobileKey  string
	userKey    string
	appURI     string
	eventsURI  string
	streamURI  string
	streaming  bool
	waitMs     int
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "rollgate-demo",
	Short: "Exercise a rollgate client against a live or local environment",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mobileKey, "mobile-key", "", "mobile key (required unless --config is given)")
	rootCmd.PersistentFlags().StringVar(&userKey, "user-key", "demo-user", "user key to evaluate flags for")
	rootCmd.PersistentFlags().StringVar(&appURI, "app-uri", "", "override the polling/eval base URL")
	rootCmd.PersistentFlags().StringVar(&eventsURI, "events-uri", "", "override the events base URL")
	rootCmd.PersistentFlags().StringVar(&streamURI, "stream-uri", "", "override the streaming base URL")
	rootCmd.PersistentFlags().BoolVar(&streaming, "streaming", true, "use the streaming worker instead of polling")
	rootCmd.PersistentFlags().IntVar(&waitMs, "wait-ms", 1500, "how long to wait for the first flag payload before evaluating")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "load configuration from a YAML/JSON/TOML file instead of flags")
}

func buildConfig() (rollgate.Config, error) {
	if configFile != "" {
		return rollgate.LoadConfigFile(configFile)
	}

	cfg := rollgate.DefaultConfig(mobileKey)
	cfg.Streaming = streaming
	if appURI != "" {
		cfg.AppURI = appURI
	}
	if eventsURI != "" {
		cfg.EventsURI = eventsURI
	}
	if streamURI != "" {
		cfg.StreamURI = streamURI
	}
	return cfg, nil
}

func waitForReady(c *rollgate.Client) {
	deadline := time.After(time.Duration(waitMs) * time.Millisecond)
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			if c.IsInitialized() {
				return
			}
		}
	}
}
