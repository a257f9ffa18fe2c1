package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pdfqa/internal/app"
)

func ingestCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "ingest <file.pdf>...",
		Short: "Extract and index PDF files for an owner",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			application, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer application.Close(cmd.Context())

			for _, path := range args {
				name := filepath.Base(path)
				if !strings.HasSuffix(name, ".pdf") {
					return fmt.Errorf("%s: only PDF files are allowed", path)
				}
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				resp, err := application.Upload(cmd.Context(), f, name, owner)
				f.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := printJSON(cmd, resp); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&owner, "uuid", "u", "", "owner id the documents belong to")
	_ = cmd.MarkFlagRequired("uuid")
	return cmd
}

func askCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from an owner's documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			application, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer application.Close(cmd.Context())

			resp, err := application.Ask(cmd.Context(), strings.Join(args, " "), owner)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}
	cmd.Flags().StringVarP(&owner, "uuid", "u", "", "owner id whose documents are searched")
	_ = cmd.MarkFlagRequired("uuid")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
