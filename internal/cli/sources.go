package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sources [digest-id]",
		Short: "List the articles a digest was written from",
		Long:  "List the articles a digest covered, in prompt order. Without an id the latest digest is used.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSources,
	}

	RootCmd.AddCommand(cmd)
}

func runSources(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var id string
	if len(args) > 0 {
		id = args[0]
	} else {
		d, err := s.LatestDigest(cmd.Context())
		if err != nil {
			exitErr("latest digest", err)
		}
		id = d.ID
	}

	hashes, err := s.DigestSources(cmd.Context(), id)
	if err != nil {
		exitErr("sources", err)
	}
	items := make([]model.Item, 0, len(hashes))
	for _, h := range hashes {
		it, err := s.Get(cmd.Context(), h)
		if err != nil {
			exitErr("get "+h, err)
		}
		items = append(items, *it)
	}
	printJSON(items)
}
