package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/source"
)

func init() {
	cmd := &cobra.Command{
		Use:   "brief [file]",
		Short: "Turn a text or PDF file into a structured briefing",
		Long:  "Summarize the input into an <Introduction>/<Main>/<Conclusion> briefing with keywords. Reads stdin when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runBrief,
	}

	RootCmd.AddCommand(cmd)
}

func runBrief(cmd *cobra.Command, args []string) {
	e := openEnv(cmd.Context())
	defer e.close()

	var text string
	if len(args) == 1 {
		var err error
		if text, err = source.ReadText(args[0], e.cfg.Source.MaxPDFChars); err != nil {
			exitErr("read input", err)
		}
	} else {
		text = readInput(nil)
	}

	out, err := e.p.Brief(cmd.Context(), strings.TrimSpace(text))
	if err != nil {
		exitErr("brief", err)
	}
	fmt.Println(out)
}
