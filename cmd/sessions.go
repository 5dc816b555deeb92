package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List ingested sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.ListSessions(50)
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions yet — run 'recall ingest' first")
			return nil
		}

		fmt.Printf("%-38s %-16s %8s %8s  %s\n", "SESSION", "PROJECT", "TURNS", "TOKENS", "LAST ACTIVITY")
		fmt.Println("────────────────────────────────────────────────────────────────────────────────────────")
		for _, s := range sessions {
			last := "-"
			if s.UpdatedAt != nil {
				last = s.UpdatedAt.Local().Format("2006-01-02 15:04")
			}
			project := s.Project
			if project == "" {
				project = "-"
			}
			fmt.Printf("%-38s %-16s %8d %8d  %s\n",
				s.SessionID, project, s.MessageCount, s.TotalTokens, last)
		}
		return nil
	},
}
