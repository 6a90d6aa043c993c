package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect pipeline runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Run:   runRunsList,
	}
	listCmd.Flags().IntP("limit", "l", 20, "Max results")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		Run:   runRunsShow,
	}

	runsCmd.AddCommand(listCmd, showCmd)
	RootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context(), limit)
	if err != nil {
		exitErr("list runs", err)
	}
	printJSON(runs)
}

func runRunsShow(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	run, err := s.GetRun(cmd.Context(), args[0])
	if err != nil {
		exitErr("get run", err)
	}
	printJSON(run)
}
