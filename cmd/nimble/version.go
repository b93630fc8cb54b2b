package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(w, version)
				return
			}
			fmt.Fprintln(w, headStyle.Render("nimble"))
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Version:   "), version)
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Commit:    "), commit)
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Built:     "), date)
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Go version:"), runtime.Version())
			fmt.Fprintf(w, "  %s %s/%s\n", labelStyle.Render("OS/Arch:   "), runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}
