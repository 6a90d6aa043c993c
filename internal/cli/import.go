package cli

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import articles from JSON",
		Long:  "Import articles from JSON on stdin. Expects the format produced by export; articles already stored are skipped.",
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var items []model.Item
	if err := json.Unmarshal(data, &items); err != nil {
		exitErr("parse json", err)
	}

	cfg := loadConfig()
	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res, err := s.Import(cmd.Context(), items)
	if err != nil {
		exitErr("import", err)
	}
	printJSON(res)
}
