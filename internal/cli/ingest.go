package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch recent articles into the store",
		Long:  "Fetch articles from the configured listing page and feeds that are within source.window_days, skipping the ones already stored.",
		Run:   runIngest,
	}

	cmd.Flags().Int("days", 0, "Override source.window_days")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("days")

	e := openEnv(cmd.Context())
	defer e.close()
	if days > 0 {
		e.cfg.Source.WindowDays = days
	}

	res, err := e.p.Ingest(cmd.Context())
	if err != nil {
		exitErr("ingest", err)
	}
	printJSON(res)
}
