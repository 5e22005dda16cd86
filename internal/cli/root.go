package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	tcpAddr    string
	httpPort   string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "trivia-server",
		Short: "Real-time multiplayer trivia match server",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&tcpAddr, "tcp-addr", "", "TCP listen address (overrides config)")
	cmd.PersistentFlags().StringVar(&httpPort, "http-port", "", "HTTP/websocket port (overrides config)")
	cmd.AddCommand(NewStartCmd(&configPath, &tcpAddr, &httpPort))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
