package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/text2video/internal/config"
	"github.com/ivlev/text2video/internal/jamo"
)

// NewDecomposeCommand creates the decompose command.
func NewDecomposeCommand(rootOpts *RootOptions) *cobra.Command {
	var script string

	cmd := &cobra.Command{
		Use:   "decompose [text]",
		Short: "Print the reveal sequence of a text",
		Long: `Print every unit the reveal appends, in order, with its code points.
Hangul syllables are split into their leading, vowel and trailing jamo.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case len(args) == 1:
				text = args[0]
			case script != "":
				var err error
				if text, err = config.LoadScript(script); err != nil {
					return err
				}
			default:
				return fmt.Errorf("pass text or --script")
			}
			return runDecompose(cmd, text)
		},
	}

	cmd.Flags().StringVarP(&script, "script", "s", "", "text file to decompose")
	return cmd
}

func runDecompose(cmd *cobra.Command, text string) error {
	out := cmd.OutOrStdout()
	units := jamo.Units(text)
	for i, u := range units {
		codes := make([]string, 0, len(u))
		for _, r := range string(u) {
			codes = append(codes, fmt.Sprintf("U+%04X", r))
		}
		glyph := string(u)
		if u.IsLineBreak() {
			glyph = `\n`
		}
		fmt.Fprintf(out, "%4d  %-20s %s\n", i, strings.Join(codes, " "), glyph)
	}
	fmt.Fprintf(out, "[*] Единиц: %d | Строк: %d\n", len(units), jamo.LineCount(units))
	return nil
}
