package cmd

import (
	"fmt"

	"recall/internal/embed"
	"recall/internal/ingest"

	"github.com/spf13/cobra"
)

var (
	ingestPath    string
	ingestFile    string
	ingestNoEmbed bool
	ingestLimit   int
)

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestPath, "path", "", "directory to scan for .jsonl transcripts (default ~/.claude/projects)")
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "ingest a single transcript file")
	ingestCmd.Flags().BoolVar(&ingestNoEmbed, "no-embed", false, "store chunks without embeddings")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "max number of files to ingest (0 = all)")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest session transcripts into the recall database",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		var files []string
		if ingestFile != "" {
			files = []string{ingestFile}
		} else {
			root := ingestPath
			if root == "" {
				root, err = ingest.DefaultRoot()
				if err != nil {
					return err
				}
			}
			files, err = ingest.FindTranscripts(root)
			if err != nil {
				return err
			}
		}
		if len(files) == 0 {
			fmt.Println("No transcripts found.")
			return nil
		}

		ctx := cmd.Context()
		opts := ingest.Options{
			SkipEmbed:   ingestNoEmbed,
			MaxFiles:    ingestLimit,
			Concurrency: embed.DefaultConcurrency,
			Progress: func(format string, args ...any) {
				fmt.Printf(format+"\n", args...)
			},
		}
		if !ingestNoEmbed {
			client := newEmbedder()
			if err := client.Health(ctx); err != nil {
				return fmt.Errorf("embedding service not ready: %w", err)
			}
			opts.Embedder = client
		}

		res := ingest.Run(ctx, st, files, opts)

		fmt.Printf("Ingested %d sessions (%d chunks), %d skipped\n", res.Ingested, res.Chunks, res.Skipped)
		for _, e := range res.Errors {
			fmt.Printf("  warning: %s\n", e)
		}
		return nil
	},
}
