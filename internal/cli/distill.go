package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/source"
)

func init() {
	cmd := &cobra.Command{
		Use:   "distill <file>",
		Short: "Clean a text or PDF file into podcast-ready prose",
		Long:  "Split the file into source.chunk_size chunks and clean each one. The result is printed to stdout.",
		Args:  cobra.ExactArgs(1),
		Run:   runDistill,
	}

	cmd.Flags().Int("chunk-size", 0, "Override source.chunk_size")

	RootCmd.AddCommand(cmd)
}

func runDistill(cmd *cobra.Command, args []string) {
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")

	e := openEnv(cmd.Context())
	defer e.close()
	if chunkSize > 0 {
		e.cfg.Source.ChunkSize = chunkSize
	}

	text, err := source.ReadText(args[0], e.cfg.Source.MaxPDFChars)
	if err != nil {
		exitErr("read input", err)
	}
	out, err := e.p.Distill(cmd.Context(), text)
	if err != nil {
		exitErr("distill", err)
	}
	fmt.Println(out)
}
