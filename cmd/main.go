package main

import (
	"os"

	"github.com/spf13/cobra"

	"pdfqa/internal/config"
	"pdfqa/internal/logger"
)

func main() {
	root := &cobra.Command{
		Use:           "pdfqa",
		Short:         "Question answering over uploaded PDF documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	root.AddCommand(serveCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(askCmd())

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and switches to the configured logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger.InitLogger(cfg)
	return cfg, nil
}
