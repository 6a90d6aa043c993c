package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored articles, newest first",
		Run:   runList,
	}

	cmd.Flags().Duration("since", 0, "Only articles stored within this duration, e.g. 48h")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("titles-only", false, "Only output hash and title")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	since, _ := cmd.Flags().GetDuration("since")
	limit, _ := cmd.Flags().GetInt("limit")
	titlesOnly, _ := cmd.Flags().GetBool("titles-only")

	cfg := loadConfig()
	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	params := store.ListParams{Limit: limit}
	if since > 0 {
		params.Since = time.Now().Add(-since)
	}
	items, err := s.List(cmd.Context(), params)
	if err != nil {
		exitErr("list", err)
	}

	if titlesOnly {
		for _, it := range items {
			fmt.Printf("%s  %s  %s\n", it.Hash, it.Date, it.Title)
		}
		return
	}
	printJSON(items)
}
