package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zhaddad/aeromind/internal/agent"
)

var (
	askSessionID string
	askUserID    string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant a question",
	Long:  `Runs the full reasoning pipeline for one question and prints the fact-checked answer.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		sessionID := askSessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		env := a.agent.ExecuteQuery(cmd.Context(), query, agent.Context{
			SessionID: sessionID,
			UserID:    askUserID,
		})
		if !env.Success {
			fmt.Fprintf(os.Stderr, "Error: %s\n", env.Error)
			if env.SuggestedAlternative != "" {
				fmt.Fprintf(os.Stderr, "Suggestion: %s\n", env.SuggestedAlternative)
			}
			return fmt.Errorf("query failed")
		}

		fmt.Println(env.Answer)
		fmt.Println()
		status := "not fact-checked"
		if env.FactChecked {
			status = "fact-checked"
		}
		fmt.Printf("confidence %.2f, %s\n", env.Confidence, status)

		if verbose && len(env.Reasoning) > 0 {
			fmt.Println("\nReasoning:")
			for i, step := range env.Reasoning {
				fmt.Printf("  %d. %s\n", i+1, step)
			}
		}
		fmt.Printf("\nsession: %s\n", sessionID)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askSessionID, "session", "", "session id to continue a conversation")
	askCmd.Flags().StringVar(&askUserID, "user", "", "user id for preferences and long-term memory")
	rootCmd.AddCommand(askCmd)
}
