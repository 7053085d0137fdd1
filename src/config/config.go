package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"github.com/rainbowlabs/notionpush/src/agent"
	"github.com/rainbowlabs/notionpush/src/logging"
	"github.com/rainbowlabs/notionpush/src/memorybank"
	"github.com/rainbowlabs/notionpush/src/notionclient"
	"github.com/rainbowlabs/notionpush/src/responses"
	"github.com/rainbowlabs/notionpush/src/store"
	"github.com/rainbowlabs/notionpush/src/tasks"
	"github.com/rainbowlabs/notionpush/src/utils"
)

type OperationType string

const (
	UNKNOWN OperationType = "UNKNOWN"
	PUSH    OperationType = "PUSH"
	STATUS  OperationType = "STATUS"
)

const DEFAULT_STORE_DSN = "./memory-bank"

type Config struct {
	Token          string
	Operation_Type OperationType
	StoreDSN       string
	PayloadPath    string
	PageID         string
	DatabaseID     string
	TaskName       string
	Collection     string
	Dummy          bool
}

func validateUUID(objectType string, objectUUID string) error {
	if objectUUID == "" {
		return nil
	}
	if _, err := uuid.Parse(objectUUID); err != nil {
		return fmt.Errorf("invalid %s UUID: %s", objectType, objectUUID)
	}
	return nil
}

func (c *Config) validatePushConfig() error {
	if c.Token == "" && !c.Dummy {
		return fmt.Errorf("notion secret token not provided")
	}

	if c.PayloadPath == "" {
		return fmt.Errorf("push payload file not provided")
	}

	if c.StoreDSN == "" {
		c.StoreDSN = DEFAULT_STORE_DSN
	}

	err := validateUUID("Page", c.PageID)
	if err != nil {
		return err
	}

	err = validateUUID("Database", c.DatabaseID)
	if err != nil {
		return err
	}

	return nil
}

func (c *Config) validateStatusConfig() error {
	if c.StoreDSN == "" {
		c.StoreDSN = DEFAULT_STORE_DSN
	}
	return nil
}

func (c *Config) getAgent(ctx context.Context, recordStore store.RecordStore) *agent.Agent {
	ntnClient := notionclient.GetNotionApiClient(ctx, notionapi.Token(c.Token),
		notionapi.NewClient)
	bank := memorybank.GetMemoryBank(recordStore)
	tracker := tasks.GetTracker(recordStore)
	responseStore := responses.GetResponseStore(recordStore)

	return agent.GetAgent(ntnClient, bank, tracker, responseStore,
		notionclient.DatabaseID(c.DatabaseID))
}

func (c *Config) executePush(ctx context.Context) {
	log := zerolog.Ctx(ctx)
	recordStore, err := store.GetRecordStore(c.StoreDSN)
	if err != nil {
		log.Error().Err(err).Msg(logging.StoreInitErr)
		return
	}
	defer recordStore.Close()

	jsonBytes, err := utils.ReadJsonFile(c.PayloadPath)
	if err != nil {
		log.Error().Err(err).Msg(logging.PayloadErr)
		return
	}

	req, err := agent.ParsePushRequest(jsonBytes)
	if err != nil {
		log.Error().Err(err).Msg(logging.PayloadErr)
		return
	}

	if c.PageID != "" {
		req.PageID = c.PageID
	}
	if c.TaskName != "" {
		req.TaskName = c.TaskName
	}
	if c.Collection != "" {
		req.Collection = c.Collection
	}
	if c.Dummy {
		req.Dummy = true
	}

	page, err := c.getAgent(ctx, recordStore).Push(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg(logging.PushErr)
		return
	}

	log.Info().Str(logging.PageUUID, string(page.ID)).Msg("Push successful")
}

func (c *Config) executeStatus(ctx context.Context) {
	log := zerolog.Ctx(ctx)
	recordStore, err := store.GetRecordStore(c.StoreDSN)
	if err != nil {
		log.Error().Err(err).Msg(logging.StoreInitErr)
		return
	}
	defer recordStore.Close()

	bank := memorybank.GetMemoryBank(recordStore)
	syncStatus, err := bank.GetSyncStatus(ctx)
	if err != nil {
		log.Error().Err(err).Msg(logging.StatusErr)
		return
	}

	errorLog, err := bank.GetErrorLog(ctx)
	if err != nil {
		log.Error().Err(err).Msg(logging.StatusErr)
		return
	}

	taskList, err := tasks.GetTracker(recordStore).List(ctx)
	if err != nil {
		log.Error().Err(err).Msg(logging.StatusErr)
		return
	}

	report := map[string]interface{}{
		"sync_status": syncStatus,
		"error_stats": errorLog.ErrorStats,
		"last_error":  errorLog.LastError,
		"tasks":       taskList,
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg(logging.StatusErr)
		return
	}
	fmt.Fprintln(os.Stdout, string(encoded))
}

func (c *Config) Execute(ctx context.Context) {
	log := zerolog.Ctx(ctx)
	if c.Operation_Type == PUSH {
		log.Info().Msg("Starting push operation")

		err := c.validatePushConfig()
		if err != nil {
			log.Error().Err(err).Msg(logging.ValidationErr)
			return
		}

		c.executePush(ctx)
		return
	}

	if c.Operation_Type == STATUS {
		err := c.validateStatusConfig()
		if err != nil {
			log.Error().Err(err).Msg(logging.ValidationErr)
			return
		}

		c.executeStatus(ctx)
		return
	}

	err := fmt.Errorf("unknown operation type provided: %s", c.Operation_Type)
	log.Error().Err(err).Msg(logging.ValidationErr)
}
