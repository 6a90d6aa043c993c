package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/pipeline"
)

func init() {
	cmd := &cobra.Command{
		Use:   "assemble <run-id>",
		Short: "Master a run's part files into the episode",
		Long:  "Reload the run's script and part files, check that every turn has its part, then stitch, master, add intro and outro music and export the episode.",
		Args:  cobra.ExactArgs(1),
		Run:   runAssemble,
	}

	cmd.Flags().String("strategy", "", "Override timeline.strategy: prepend-append or overlay")
	cmd.Flags().String("format", "", "Override timeline.export_format: wav, wav-ulaw or wav-alaw")

	RootCmd.AddCommand(cmd)
}

func runAssemble(cmd *cobra.Command, args []string) {
	runID := args[0]
	strategy, _ := cmd.Flags().GetString("strategy")
	format, _ := cmd.Flags().GetString("format")

	e := openEnv(cmd.Context())
	defer e.close()
	if strategy != "" {
		e.cfg.Timeline.Strategy = strategy
	}
	if format != "" {
		e.cfg.Timeline.ExportFormat = format
	}

	res, err := e.p.ParseScript(e.p.ScriptPath(runID))
	if err != nil {
		exitErr("parse", err)
	}
	parts, err := pipeline.LoadParts(e.p.AudioDir(), pipeline.PartPrefix(runID))
	if err != nil {
		exitErr("load parts", err)
	}
	path, err := e.p.Assemble(cmd.Context(), runID, res.Turns, parts)
	if err != nil {
		exitErr("assemble", err)
	}
	printJSON(map[string]any{"run_id": runID, "episode_path": path, "parts": len(parts)})
}
