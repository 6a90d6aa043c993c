package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/pipeline"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Produce an episode end to end",
		Long: "Ingest recent articles, digest them, write and voice a script and master the episode. " +
			"With --input a text or PDF file is distilled instead of digesting articles.",
		Run: runRun,
	}

	cmd.Flags().String("run", "", "Run id (default: derived from the current time)")
	cmd.Flags().String("input", "", "Text or PDF file to turn into an episode")
	cmd.Flags().Bool("skip-ingest", false, "Digest what is already stored without fetching")

	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) {
	runID, _ := cmd.Flags().GetString("run")
	input, _ := cmd.Flags().GetString("input")
	skipIngest, _ := cmd.Flags().GetBool("skip-ingest")

	e := openEnv(cmd.Context())
	defer e.close()

	res, err := e.p.Run(cmd.Context(), pipeline.RunOptions{
		RunID:      runID,
		InputPath:  input,
		SkipIngest: skipIngest,
	})
	if err != nil {
		exitErr("run", err)
	}
	printJSON(res)
}
