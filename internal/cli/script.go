package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/podcaster/internal/script"
	"github.com/rcliao/podcaster/internal/source"
)

func init() {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Write and parse a two-host script",
		Long: "Write a script from the latest digest, or from --input, and store it under the run's script path. " +
			"With --parse an existing script file is only parsed.",
		Run: runScript,
	}

	cmd.Flags().String("run", "", "Run id (default: a new one)")
	cmd.Flags().String("input", "", "Text or PDF file to script instead of the latest digest")
	cmd.Flags().String("parse", "", "Parse this script file and print its turns")
	cmd.Flags().Bool("no-rewrite", false, "Skip the annotated rewrite")
	cmd.Flags().Bool("tagged", false, "Print parsed turns as tagged lines instead of JSON")

	RootCmd.AddCommand(cmd)
}

func runScript(cmd *cobra.Command, args []string) {
	runID, _ := cmd.Flags().GetString("run")
	input, _ := cmd.Flags().GetString("input")
	parsePath, _ := cmd.Flags().GetString("parse")
	noRewrite, _ := cmd.Flags().GetBool("no-rewrite")
	tagged, _ := cmd.Flags().GetBool("tagged")

	e := openEnv(cmd.Context())
	defer e.close()
	if noRewrite {
		e.cfg.Source.Rewrite = false
	}

	if parsePath != "" {
		res, err := e.p.ParseScript(parsePath)
		if err != nil {
			exitErr("parse", err)
		}
		if tagged {
			fmt.Print(script.Format(res.Turns))
			return
		}
		printJSON(res)
		return
	}

	var content string
	if input != "" {
		text, err := source.ReadText(input, e.cfg.Source.MaxPDFChars)
		if err != nil {
			exitErr("read input", err)
		}
		content = text
	} else {
		d, err := e.store.LatestDigest(cmd.Context())
		if err != nil {
			exitErr("latest digest", err)
		}
		content = d.Content
	}

	if runID == "" {
		runID = e.p.NewRunID()
	}
	res, err := e.p.Script(cmd.Context(), runID, content)
	if err != nil {
		exitErr("script", err)
	}
	if tagged {
		fmt.Print(script.Format(res.Turns))
		return
	}
	printJSON(res)
}
