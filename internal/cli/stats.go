package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	path := ""
	if cfg.Store.Driver == "sqlite" {
		path = cfg.Store.Path
	}
	stats, err := s.Stats(cmd.Context(), path)
	if err != nil {
		exitErr("stats", err)
	}
	printJSON(stats)
}
