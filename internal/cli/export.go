package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored articles as JSON",
		Long:  "Export every stored article, oldest first, in the format read by import.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	items, err := s.ExportAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}
	printJSON(items)
}
