package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put [content]",
		Short: "Store an article by hand",
		Long:  "Store an article. Content can be a positional arg or piped via stdin. Re-adding the same date, title and URL is a no-op.",
		Run:   runPut,
	}

	cmd.Flags().String("date", "", "Publication date as it appears on the source (required)")
	cmd.Flags().String("title", "", "Title (required)")
	cmd.Flags().String("url", "", "Source URL (required)")
	cmd.Flags().String("author", "", "Author")

	cmd.MarkFlagRequired("date")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("url")

	RootCmd.AddCommand(cmd)
}

func runPut(cmd *cobra.Command, args []string) {
	date, _ := cmd.Flags().GetString("date")
	title, _ := cmd.Flags().GetString("title")
	url, _ := cmd.Flags().GetString("url")
	author, _ := cmd.Flags().GetString("author")

	content := strings.TrimSpace(readInput(args))
	if content == "" {
		exitErr("put", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	cfg := loadConfig()
	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res, err := s.Put(cmd.Context(), store.PutParams{
		Date:    date,
		Title:   title,
		Author:  author,
		URL:     url,
		Content: content,
	})
	if err != nil {
		exitErr("put", err)
	}
	printJSON(res)
}
