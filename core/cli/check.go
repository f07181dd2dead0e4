package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abiguard-labs/abiguard/core/abi"
	"github.com/abiguard-labs/abiguard/pkg/report"
)

// CheckOptions holds the parsed flags for "check".
type CheckOptions struct {
	OldPath             string
	NewPath             string
	Profile             string
	Format              string
	Color               string
	Verbose             bool
	OldVersion          string
	NewVersion          string
	AllowTrailingGrowth bool
}

// CheckRunFunc is the function signature for the check command handler.
// It is injected by the wiring layer (cmd/abiguard/main.go).
type CheckRunFunc func(ctx context.Context, opts CheckOptions) error

// NewCheckCmd creates the "check" subcommand.
func NewCheckCmd(runFunc CheckRunFunc) *cobra.Command {
	var opts CheckOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check two interface versions for binary compatibility",
		Long:  "Check compares the declaration lists of an old and a new library version and classifies every exported symbol change.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateCheckFlags(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.OldPath, "old", "", "Declaration file of the old version (required)")
	cmd.Flags().StringVar(&opts.NewPath, "new", "", "Declaration file of the new version (required)")
	cmd.Flags().StringVar(&opts.Profile, "profile", "lp64", "Target ABI profile (lp64, ilp32)")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format (text, json)")
	cmd.Flags().StringVar(&opts.Color, "color", "auto", "Colorize text output (auto, always, never)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Also print unchanged symbols")
	cmd.Flags().StringVar(&opts.OldVersion, "old-version", "", "Version label for the old side (e.g. v1.2.0)")
	cmd.Flags().StringVar(&opts.NewVersion, "new-version", "", "Version label for the new side")
	cmd.Flags().BoolVar(&opts.AllowTrailingGrowth, "allow-trailing-growth", false, "Treat structs that only append trailing fields as compatible")

	cmd.MarkFlagRequired("old")
	cmd.MarkFlagRequired("new")

	return cmd
}

func validateCheckFlags(opts CheckOptions) error {
	for flag, path := range map[string]string{"--old": opts.OldPath, "--new": opts.NewPath} {
		if path == "" {
			return fmt.Errorf("%s is required", flag)
		}
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("declaration file does not exist: %s", path)
			}
			return fmt.Errorf("cannot access declaration file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("declaration path is a directory: %s", path)
		}
	}

	if _, err := abi.ProfileByName(opts.Profile); err != nil {
		return err
	}
	if _, err := report.ParseFormat(opts.Format); err != nil {
		return err
	}
	if _, err := report.ParseColorMode(opts.Color); err != nil {
		return err
	}

	return nil
}
