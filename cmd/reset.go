package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var resetCmdFlags struct {
	UserID     string
	Activities bool
	Weight     bool
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear a user's records",
	Long:  `This command removes all activity records, weight entries or both for a single user. The account itself is kept.`,
	RunE:  reset,
}

func init() {
	resetCmd.Flags().StringVar(&resetCmdFlags.UserID, "user", "", "ID of the user whose records are cleared")
	resetCmd.Flags().BoolVar(&resetCmdFlags.Activities, "activities", false, "Clear activity records")
	resetCmd.Flags().BoolVar(&resetCmdFlags.Weight, "weight", false, "Clear weight entries")
	_ = resetCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(resetCmd)
}

func reset(cmd *cobra.Command, _ []string) error {
	if !resetCmdFlags.Activities && !resetCmdFlags.Weight {
		return fmt.Errorf("nothing to clear, pass --activities, --weight or both")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer st.Close() //nolint:errcheck

	// Make sure the user exists before touching anything.
	user, err := st.GetUser(cmd.Context(), resetCmdFlags.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if resetCmdFlags.Activities {
		if err := st.ClearActivities(cmd.Context(), user.ID); err != nil {
			return fmt.Errorf("failed to clear activities: %w", err)
		}
		log.Info("Cleared activities", "user", user.Username)
	}
	if resetCmdFlags.Weight {
		if err := st.ClearWeightEntries(cmd.Context(), user.ID); err != nil {
			return fmt.Errorf("failed to clear weight entries: %w", err)
		}
		log.Info("Cleared weight entries", "user", user.Username)
	}

	return nil
}
