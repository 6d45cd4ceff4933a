package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record store statistics",
	Long:  `Display record counts across all users of the configured storage backend.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := newStore(cfg)
		if err != nil {
			return fmt.Errorf("failed to open record store: %w", err)
		}
		defer st.Close() //nolint:errcheck

		stats, err := st.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get store stats: %w", err)
		}

		fmt.Println("Record Store Statistics:")
		fmt.Printf("Backend: %s\n", cfg.Storage.Backend)
		fmt.Printf("Users: %s\n", humanize.Comma(stats.Users))
		fmt.Printf("Activities: %s\n", humanize.Comma(stats.Activities))
		fmt.Printf("Weight Entries: %s\n", humanize.Comma(stats.WeightEntries))
		fmt.Printf("Friendships: %s\n", humanize.Comma(stats.Friendships))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
