package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zhaddad/aeromind/internal/agent"
)

var planSessionID string

var planCmd = &cobra.Command{
	Use:   "plan [question]",
	Short: "Show the reasoning plan for a question without executing it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")

		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		sessionID := planSessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		plan, err := a.agent.PlanQuery(cmd.Context(), query, agent.Context{SessionID: sessionID})
		if err != nil {
			return fmt.Errorf("planning: %w", err)
		}

		out, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding plan: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planSessionID, "session", "", "session id to continue a conversation")
	rootCmd.AddCommand(planCmd)
}
