package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-handle/internal/cmem"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imagectl %s\n", a.version)
			fmt.Fprintf(out, "  Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(out, "  C allocator: %t\n", cmem.Native)
			return nil
		},
	}
}
