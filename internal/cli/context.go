package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show the article text the next digest would be written from",
		Long:  "Pack the newest stored articles into the digest character budget, the same way the digest stage does.",
		Run:   runContext,
	}

	cmd.Flags().IntP("budget", "b", 0, "Max characters of article content (default: source.digest_chars)")
	cmd.Flags().IntP("limit", "l", 0, "Max articles (default: source.digest_items)")
	cmd.Flags().Bool("text", false, "Print the rendered prompt input instead of JSON")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	budget, _ := cmd.Flags().GetInt("budget")
	limit, _ := cmd.Flags().GetInt("limit")
	asText, _ := cmd.Flags().GetBool("text")

	cfg := loadConfig()
	if budget <= 0 {
		budget = cfg.Source.DigestChars
	}
	if limit <= 0 {
		limit = cfg.Source.DigestItems
	}

	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	result, err := s.Context(cmd.Context(), store.ContextParams{
		Limit:  limit,
		Budget: budget,
	})
	if err != nil {
		exitErr("context", err)
	}

	if asText {
		fmt.Println(result.Render())
		return
	}
	printJSON(result)
}
