package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"recall/internal/embed"
	"recall/internal/store"

	"github.com/spf13/cobra"
)

var (
	dbPath     string
	embedURL   string
	embedModel string
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Semantic search over AI coding-session transcripts",
	Long: `recall ingests JSONL transcripts of AI coding sessions, embeds each
conversational turn with a local embedding model, and searches them by
vector similarity or a blended vector+keyword score.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envOr("RECALL_DB", ""), "database path (default ~/.recall/recall.db)")
	rootCmd.PersistentFlags().StringVar(&embedURL, "embed-url", envOr("RECALL_EMBED_URL", "http://localhost:11434"), "embedding service base URL")
	rootCmd.PersistentFlags().StringVar(&embedModel, "embed-model", envOr("RECALL_EMBED_MODEL", "nomic-embed-text"), "embedding model name")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".recall", "recall.db")
	}
	return store.Open(path)
}

func newEmbedder() *embed.Client {
	return embed.NewClient(embedURL, embedModel)
}
