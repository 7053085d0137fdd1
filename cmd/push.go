package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rainbowlabs/notionpush/src/config"
	"github.com/spf13/cobra"
)

var payloadPath string
var pageUUID string
var databaseUUID string
var taskName string
var collection string
var dummyPush bool

// pushCmd represents the push command
var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push content to a Notion page or database",
	Long: "Push the given JSON payload to Notion by creating a new page in a " +
		"database or appending content to an existing page. Page state, sync " +
		"history and errors are recorded in the memory bank.",
	RunE: PushContent,
}

func init() {
	rootCmd.AddCommand(pushCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	pushCmd.Flags().StringVarP(&payloadPath, "payload", "p", "",
		"Path to the JSON payload file to push")
	pushCmd.MarkFlagFilename("payload")
	pushCmd.MarkFlagRequired("payload")
	pushCmd.Flags().StringVar(&pageUUID, "page", "",
		"Page UUID to which content needs to be appended")
	pushCmd.Flags().StringVar(&databaseUUID, "database", "",
		"Database UUID in which a new page needs to be created")
	pushCmd.Flags().StringVar(&taskName, "task", "",
		"Task name under which the push status needs to be tracked")
	pushCmd.Flags().StringVar(&collection, "collection", "",
		"Collection name in which the push response needs to be stored")
	pushCmd.Flags().BoolVar(&dummyPush, "dummy", false,
		"Skip the Notion API and record a synthetic page")
}

func validateMutuallyExclusiveFlags() {
	if pageUUID != "" && databaseUUID != "" {
		fmt.Fprintf(os.Stderr, "Flag --page is mutually exclusive with flag "+
			"--database.\n")
		os.Exit(1)
	}
}

func PushContent(cmd *cobra.Command, args []string) error {

	validateNonEmptyNotionToken()
	validateMutuallyExclusiveFlags()

	log, err := getLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return err
	}

	cfg := &config.Config{
		Token:          notionToken,
		Operation_Type: config.PUSH,
		StoreDSN:       resolveStoreDSN(),
		PayloadPath:    payloadPath,
		PageID:         pageUUID,
		DatabaseID:     databaseUUID,
		TaskName:       taskName,
		Collection:     collection,
		Dummy:          dummyPush,
	}

	ctx := log.WithContext(context.Background())

	cfg.Execute(ctx)
	return nil
}
