package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level abiguard command.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abiguard",
		Short: "Binary compatibility checker for native library interfaces",
		Long:  "Abiguard compares two versions of a library's exported interface and reports whether the newer one preserves binary compatibility.",
	}

	cmd.Version = version

	return cmd
}
