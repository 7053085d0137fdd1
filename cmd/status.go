package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rainbowlabs/notionpush/src/config"
	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print sync status, error stats and task states from the memory bank",
	RunE:  PrintStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func PrintStatus(cmd *cobra.Command, args []string) error {
	log, err := getLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return err
	}

	cfg := &config.Config{
		Operation_Type: config.STATUS,
		StoreDSN:       resolveStoreDSN(),
	}

	ctx := log.WithContext(context.Background())

	cfg.Execute(ctx)
	return nil
}
