package cmd

import (
	"fmt"
	"os"
	"strings"

	"recall/internal/store"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var (
	searchLimit   int
	searchRole    string
	searchKeyword bool
	searchContext int
	searchCopy    bool
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "max number of results")
	searchCmd.Flags().StringVar(&searchRole, "role", "", "restrict to one role (user, assistant, tool)")
	searchCmd.Flags().BoolVar(&searchKeyword, "keyword", false, "blend vector similarity with keyword rank")
	searchCmd.Flags().IntVar(&searchContext, "context", 0, "show N surrounding turns for each result")
	searchCmd.Flags().BoolVar(&searchCopy, "copy", false, "copy the top result to the clipboard")
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search ingested transcripts by meaning",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		client := newEmbedder()
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("embedding service not ready: %w", err)
		}
		vec, err := client.Embed(ctx, query)
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}

		var results []store.SearchResult
		if searchKeyword {
			results, err = st.QueryHybrid(vec, query, searchLimit)
		} else {
			results, err = st.QuerySimilar(vec, searchLimit, searchRole)
		}
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		for i, r := range results {
			head := fmt.Sprintf("%d. [%.3f] %s", i+1, r.Score, r.SessionID)
			if r.Project != "" {
				head += fmt.Sprintf(" (%s)", r.Project)
			}
			if r.CreatedAt != nil {
				head += " " + r.CreatedAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Println(head)

			if searchContext > 0 {
				printContext(st, r)
			} else {
				fmt.Printf("   %s: %s\n", r.Role, firstLines(r.Content, 200))
			}
			fmt.Println()
		}

		if searchCopy {
			if err := clipboard.WriteAll(results[0].Content); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not copy to clipboard: %v\n", err)
			} else {
				fmt.Println("Top result copied to clipboard!")
			}
		}
		return nil
	},
}

func printContext(st *store.Store, hit store.SearchResult) {
	neighbors, err := st.Neighbors(hit.SessionID, hit.Index, searchContext)
	if err != nil {
		fmt.Printf("   %s: %s\n", hit.Role, firstLines(hit.Content, 200))
		return
	}
	for _, n := range neighbors {
		marker := "   "
		if n.Index == hit.Index {
			marker = " > "
		}
		fmt.Printf("%s%s: %s\n", marker, n.Role, firstLines(n.Content, 200))
	}
}

// firstLines flattens content to one line and truncates for display.
func firstLines(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
