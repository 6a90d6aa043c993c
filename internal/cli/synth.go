package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/pipeline"
)

func init() {
	cmd := &cobra.Command{
		Use:   "synth <run-id>",
		Short: "Voice every turn of a run's script",
		Long:  "Parse the run's stored script and synthesize one part file per turn. Stops at the first failing turn.",
		Args:  cobra.ExactArgs(1),
		Run:   runSynth,
	}

	RootCmd.AddCommand(cmd)
}

func runSynth(cmd *cobra.Command, args []string) {
	runID := args[0]

	e := openEnv(cmd.Context())
	defer e.close()

	res, err := e.p.ParseScript(e.p.ScriptPath(runID))
	if err != nil {
		exitErr("parse", err)
	}
	parts, err := e.p.Synthesize(cmd.Context(), runID, res.Turns)
	if err != nil {
		var re *pipeline.RunError
		if errors.As(err, &re) {
			printJSON(re.Parts)
		}
		fmt.Fprintf(os.Stderr, "error: synth: %v\n", err)
		os.Exit(1)
	}
	printJSON(parts)
}
