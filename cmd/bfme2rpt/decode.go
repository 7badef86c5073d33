// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tarnhelm/bfme2rpt"
	"github.com/tarnhelm/bfme2rpt/renderer"
)

func cmdDecode() *cobra.Command {
	var outputFile string
	includeChunks := false
	showSummary := true
	addFlags := func(cmd *cobra.Command) error {
		cmd.Flags().StringVarP(&outputFile, "output", "o", outputFile, "save decoded replay to file")
		cmd.Flags().BoolVar(&includeChunks, "include-chunks", includeChunks, "include the raw order stream in the output")
		cmd.Flags().BoolVar(&showSummary, "summary", showSummary, "print a text summary of each replay")
		return nil
	}
	var cmd = &cobra.Command{
		Use:          "decode <replay-file> [<replay-file>...]",
		Short:        "decode a replay file to JSON",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quiet, _ := cmd.Flags().GetBool("quiet")

			r, err := renderer.New()
			if err != nil {
				return err
			}

			for _, input := range args {
				data, err := os.ReadFile(input)
				if err != nil {
					return err
				}
				replay, err := bfme2rpt.Decode(data)
				if err != nil {
					return fmt.Errorf("%s: %w", input, err)
				}
				if !includeChunks {
					replay.Chunks = nil
				}

				if out, err := json.MarshalIndent(replay, "", "  "); err != nil {
					log.Fatalf("json: %v\n", err)
				} else if outputFile == "" {
					fmt.Printf("%s\n", string(out))
				} else if err = os.WriteFile(outputFile, out, 0o644); err != nil {
					return err
				} else {
					log.Printf("%s: wrote %d bytes\n", outputFile, len(out))
				}

				if showSummary && !quiet {
					fmt.Print(r.RenderText(replay))
				}
			}

			return nil
		},
	}
	if err := addFlags(cmd); err != nil {
		log.Fatal(err)
	}
	return cmd
}
