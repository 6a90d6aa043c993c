package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Write a digest post from the newest stored articles",
		Run:   runDigest,
	}

	cmd.Flags().String("run", "", "Run id to attach the digest to (default: a new one)")
	cmd.Flags().Bool("latest", false, "Show the latest stored digest instead of writing one")

	RootCmd.AddCommand(cmd)
}

func runDigest(cmd *cobra.Command, args []string) {
	runID, _ := cmd.Flags().GetString("run")
	latest, _ := cmd.Flags().GetBool("latest")

	e := openEnv(cmd.Context())
	defer e.close()

	if latest {
		d, err := e.store.LatestDigest(cmd.Context())
		if err != nil {
			exitErr("latest digest", err)
		}
		printJSON(d)
		return
	}

	if runID == "" {
		runID = e.p.NewRunID()
	}
	d, err := e.p.Digest(cmd.Context(), runID)
	if err != nil {
		exitErr("digest", err)
	}
	printJSON(d)
}
