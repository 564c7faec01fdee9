// Package util provides utility commands such as version.
package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/ariel-frischer/shiplog/internal/build"
	"github.com/ariel-frischer/shiplog/internal/cli/shared"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var versionPlain bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date, and Go version information for shiplog",
	Example: `  # Show version info
  shiplog version

  # Plain output (for scripts)
  shiplog version --plain`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := build.Current()
		if versionPlain {
			printPlainVersion(cmd.OutOrStdout(), info)
			return
		}
		printPrettyVersion(cmd.OutOrStdout(), info, shared.GetTerminalWidth())
	},
}

func init() {
	versionCmd.GroupID = shared.GroupGettingStarted
	versionCmd.Flags().BoolVar(&versionPlain, "plain", false, "Plain output without formatting")
}

// Register adds the utility commands to root.
func Register(root *cobra.Command) {
	root.AddCommand(versionCmd)
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(out io.Writer, info build.Info) {
	fmt.Fprintf(out, "shiplog %s\n", info.Version)
	fmt.Fprintf(out, "commit: %s\n", info.Commit)
	fmt.Fprintf(out, "built: %s\n", info.BuildDate)
	fmt.Fprintf(out, "go: %s\n", info.GoVersion)
	fmt.Fprintf(out, "platform: %s\n", info.Platform)
}

// printPrettyVersion prints the version info in a centered box under the tagline.
func printPrettyVersion(out io.Writer, info build.Info, termWidth int) {
	dim := color.New(color.Faint).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	fmt.Fprintln(out)
	fmt.Fprintln(out, cyan(shared.CenterText("shiplog", termWidth)))
	fmt.Fprintln(out, dim(shared.CenterText(shared.Tagline, termWidth)))
	fmt.Fprintln(out)

	rows := []struct {
		label string
		value string
	}{
		{"Version", info.Version},
		{"Commit", build.ShortCommit(info.Commit)},
		{"Built", info.BuildDate},
		{"Go", info.GoVersion},
		{"Platform", info.Platform},
	}

	boxWidth := 44
	if termWidth < 50 {
		boxWidth = termWidth - 6
	}
	contentWidth := boxWidth - 4
	pad := strings.Repeat(" ", max(0, (termWidth-boxWidth)/2))
	blank := pad + shared.BoxVertical + strings.Repeat(" ", boxWidth-2) + shared.BoxVertical

	fmt.Fprintln(out, pad+shared.BoxTopLeft+strings.Repeat(shared.BoxHorizontal, boxWidth-2)+shared.BoxTopRight)
	fmt.Fprintln(out, blank)
	for _, row := range rows {
		line := fmt.Sprintf("  %s    %s", yellow(fmt.Sprintf("%10s", row.label)), white(row.value))
		// Width is computed from the uncolored text.
		if n := 10 + 4 + len(row.value) + 2; n < contentWidth {
			line += strings.Repeat(" ", contentWidth-n)
		}
		fmt.Fprintln(out, pad+shared.BoxVertical+" "+line+" "+shared.BoxVertical)
	}
	fmt.Fprintln(out, blank)
	fmt.Fprintln(out, pad+shared.BoxBottomLeft+strings.Repeat(shared.BoxHorizontal, boxWidth-2)+shared.BoxBottomRight)
	fmt.Fprintln(out)
}
