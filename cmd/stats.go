package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Counts()
		if err != nil {
			return err
		}

		fmt.Printf("Sessions:        %d\n", stats.Sessions)
		fmt.Printf("Chunks:          %d\n", stats.Chunks)
		fmt.Printf("Embedded chunks: %d", stats.EmbeddedChunks)
		if stats.Chunks > 0 {
			fmt.Printf(" (%.0f%%)", 100*float64(stats.EmbeddedChunks)/float64(stats.Chunks))
		}
		fmt.Println()
		return nil
	},
}
