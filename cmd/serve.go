package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jomei/notionapi"
	"github.com/rainbowlabs/notionpush/src/agent"
	"github.com/rainbowlabs/notionpush/src/config"
	"github.com/rainbowlabs/notionpush/src/logging"
	"github.com/rainbowlabs/notionpush/src/memorybank"
	"github.com/rainbowlabs/notionpush/src/notionclient"
	"github.com/rainbowlabs/notionpush/src/responses"
	"github.com/rainbowlabs/notionpush/src/store"
	"github.com/rainbowlabs/notionpush/src/tasks"
	"github.com/spf13/cobra"
)

var listenAddr string
var serveDatabaseUUID string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the push endpoint over HTTP",
	Long: "Run an HTTP server exposing POST /push. Each request body is the " +
		"same JSON payload accepted by the push command.",
	RunE: ServePush,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8080",
		"Address on which the HTTP server needs to listen")
	serveCmd.Flags().StringVar(&serveDatabaseUUID, "database", "",
		"Default database UUID in which new pages need to be created")
}

func ServePush(cmd *cobra.Command, args []string) error {

	validateNonEmptyNotionToken()

	log, err := getLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return err
	}

	ctx := log.WithContext(context.Background())

	dsn := resolveStoreDSN()
	if dsn == "" {
		dsn = config.DEFAULT_STORE_DSN
	}
	recordStore, err := store.GetRecordStore(dsn)
	if err != nil {
		log.Error().Err(err).Msg(logging.StoreInitErr)
		return err
	}
	defer recordStore.Close()

	ntnClient := notionclient.GetNotionApiClient(ctx,
		notionapi.Token(notionToken), notionapi.NewClient)
	pushAgent := agent.GetAgent(ntnClient,
		memorybank.GetMemoryBank(recordStore),
		tasks.GetTracker(recordStore),
		responses.GetResponseStore(recordStore),
		notionclient.DatabaseID(serveDatabaseUUID))

	mux := http.NewServeMux()
	mux.Handle("/push", agent.GetHttpHandler(pushAgent, log))

	log.Info().Str("addr", listenAddr).Msg("Starting HTTP server")
	err = http.ListenAndServe(listenAddr, mux)
	if err != nil {
		log.Error().Err(err).Msg("HTTP server stopped")
		return err
	}
	return nil
}
