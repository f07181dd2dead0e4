package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/abiguard-labs/abiguard/core/abi"
	"github.com/abiguard-labs/abiguard/core/cli"
	"github.com/abiguard-labs/abiguard/core/finding"
	"github.com/abiguard-labs/abiguard/drivers/cdecl"
	"github.com/abiguard-labs/abiguard/pkg/report"
)

const version = "0.1.0"

// errIncompatible signals the incompatible verdict through cobra's error
// path so it maps to exit code 1 instead of the generic failure code.
var errIncompatible = errors.New("incompatible")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := cdecl.NewSource()

	runCheck := func(ctx context.Context, opts cli.CheckOptions) error {
		if semver.IsValid(opts.OldVersion) && semver.IsValid(opts.NewVersion) {
			if semver.Compare(opts.NewVersion, opts.OldVersion) < 0 {
				fmt.Fprintf(os.Stderr, "warning: new version %s is older than old version %s\n", opts.NewVersion, opts.OldVersion)
			}
		}

		profile, err := abi.ProfileByName(opts.Profile)
		if err != nil {
			return err
		}

		oldDecls, err := source.LoadVersion(ctx, opts.OldPath)
		if err != nil {
			return err
		}
		newDecls, err := source.LoadVersion(ctx, opts.NewPath)
		if err != nil {
			return err
		}

		oldTab, err := abi.Build(oldDecls, profile)
		if err != nil {
			return fmt.Errorf("building old symbol table: %w", err)
		}
		newTab, err := abi.Build(newDecls, profile)
		if err != nil {
			return fmt.Errorf("building new symbol table: %w", err)
		}

		findings := abi.Compare(oldTab, newTab, abi.Config{
			AllowTrailingGrowth: opts.AllowTrailingGrowth,
		})
		rep := finding.Aggregate(findings)
		rep.OldVersion = opts.OldVersion
		rep.NewVersion = opts.NewVersion

		format, _ := report.ParseFormat(opts.Format)
		mode, _ := report.ParseColorMode(opts.Color)
		switch format {
		case report.FormatJSON:
			if err := report.RenderJSON(os.Stdout, rep); err != nil {
				return err
			}
		default:
			report.RenderText(os.Stdout, rep, opts.Verbose, mode)
		}

		if rep.Verdict == finding.VerdictIncompatible {
			return errIncompatible
		}
		return nil
	}

	var debug bool
	rootCmd := cli.NewRootCmd(version)
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if debug {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			abi.SetLogger(logger)
		}
		return nil
	}
	rootCmd.AddCommand(cli.NewCheckCmd(runCheck))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errIncompatible) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}
