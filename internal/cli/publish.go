package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/model"
	"github.com/rcliao/podcaster/internal/objectstore"
)

func init() {
	cmd := &cobra.Command{
		Use:   "publish <run-id>",
		Short: "Upload a completed episode to the NATS object store",
		Long:  "Upload the exported episode of a completed run to the nats.bucket object store under {run-id}/{uuid}.wav.",
		Args:  cobra.ExactArgs(1),
		Run:   runPublish,
	}

	cmd.Flags().String("url", "", "Override nats.url")
	cmd.Flags().String("bucket", "", "Override nats.bucket")

	RootCmd.AddCommand(cmd)
}

func runPublish(cmd *cobra.Command, args []string) {
	runID := args[0]
	url, _ := cmd.Flags().GetString("url")
	bucket, _ := cmd.Flags().GetString("bucket")

	cfg := loadConfig()
	if url == "" {
		url = cfg.NATS.URL
	}
	if bucket == "" {
		bucket = cfg.NATS.Bucket
	}

	s, err := openStore(cmd.Context(), cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	run, err := s.GetRun(cmd.Context(), runID)
	if err != nil {
		exitErr("get run", err)
	}
	if run.Status != model.RunComplete {
		exitErr("publish", fmt.Errorf("run %s is %s, not %s", runID, run.Status, model.RunComplete))
	}
	data, err := os.ReadFile(run.EpisodePath)
	if err != nil {
		exitErr("read episode", err)
	}

	obs, closeFn, err := objectstore.Connect(cmd.Context(), url, bucket)
	if err != nil {
		exitErr("connect", err)
	}
	defer closeFn()

	key, err := obs.Publish(cmd.Context(), runID, data)
	if err != nil {
		exitErr("publish", err)
	}
	printJSON(map[string]any{"run_id": runID, "bucket": obs.Bucket(), "key": key, "bytes": len(data)})
}
