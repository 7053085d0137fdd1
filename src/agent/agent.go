package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jomei/notionapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rainbowlabs/notionpush/src/memorybank"
	"github.com/rainbowlabs/notionpush/src/notionclient"
	"github.com/rainbowlabs/notionpush/src/responses"
	"github.com/rainbowlabs/notionpush/src/tasks"
)

var ErrMissingBody = errors.New("missing 'body' field")

// PushRequest is the payload accepted by the push agent. Body is either a
// string pushed as page content or a mapping pushed as page properties.
type PushRequest struct {
	Body       interface{} `json:"body"`
	PageID     string      `json:"page_id,omitempty"`
	DatabaseID string      `json:"database_id,omitempty"`
	TaskName   string      `json:"task_name,omitempty"`
	Collection string      `json:"collection,omitempty"`
	Dummy      bool        `json:"dummy,omitempty"`
}

func ParsePushRequest(jsonBytes []byte) (*PushRequest, error) {
	req := &PushRequest{}
	if err := json.Unmarshal(jsonBytes, req); err != nil {
		return nil, err
	}
	if req.Body == nil {
		return nil, ErrMissingBody
	}
	return req, nil
}

// Agent pushes payloads into Notion and keeps the memory bank, the task
// tracker and the response store in step with every push.
type Agent struct {
	notion          notionclient.NotionClient
	bank            *memorybank.MemoryBank
	tracker         *tasks.Tracker
	responses       *responses.Store
	defaultDatabase notionclient.DatabaseID
}

func GetAgent(notion notionclient.NotionClient, bank *memorybank.MemoryBank,
	tracker *tasks.Tracker, responseStore *responses.Store,
	defaultDatabase notionclient.DatabaseID) *Agent {
	return &Agent{
		notion:          notion,
		bank:            bank,
		tracker:         tracker,
		responses:       responseStore,
		defaultDatabase: defaultDatabase,
	}
}

// Push performs one push operation end to end: task bookkeeping, the Notion
// API call, memory bank updates and response archival.
func (a *Agent) Push(ctx context.Context, req *PushRequest) (*notionapi.Page, error) {
	log := zerolog.Ctx(ctx)
	if req == nil || req.Body == nil {
		return nil, ErrMissingBody
	}

	if err := a.tracker.UpdateStatus(ctx, req.TaskName, tasks.StatusRunning, ""); err != nil {
		return nil, err
	}

	page, err := a.pushBody(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("page_id", req.PageID).Msg("Push to Notion failed")
		if trackErr := a.tracker.UpdateStatus(ctx, req.TaskName, tasks.StatusFailed, err.Error()); trackErr != nil {
			log.Warn().Err(trackErr).Msg("Failed to record task failure")
		}
		if bankErr := a.bank.LogError(ctx, ClassifyError(err), err.Error()); bankErr != nil {
			log.Warn().Err(bankErr).Msg("Failed to record error in memory bank")
		}
		if bankErr := a.bank.UpdateSyncStatus(ctx, memorybank.StatusFailed, err.Error()); bankErr != nil {
			log.Warn().Err(bankErr).Msg("Failed to record sync failure in memory bank")
		}
		return nil, err
	}

	pageID := string(page.ID)
	if err := a.bank.UpdatePage(ctx, pageID, pushedProperties(req)); err != nil {
		return nil, err
	}
	if err := a.bank.UpdateSyncStatus(ctx, memorybank.StatusCompleted, ""); err != nil {
		return nil, err
	}
	if err := a.tracker.UpdateStatus(ctx, req.TaskName, tasks.StatusCompleted, ""); err != nil {
		return nil, err
	}

	if req.Collection != "" {
		document, err := pageDocument(page)
		if err != nil {
			return nil, err
		}
		if _, err := a.responses.Save(ctx, req.Collection, "", document); err != nil {
			return nil, err
		}
	}

	log.Info().Str("page_id", pageID).Msg("Notion update succeeded")
	return page, nil
}

func (a *Agent) pushBody(ctx context.Context, req *PushRequest) (*notionapi.Page, error) {
	if req.Dummy {
		id := req.PageID
		if id == "" {
			id = uuid.NewString()
		}
		return &notionapi.Page{ID: notionapi.ObjectID(id)}, nil
	}

	properties, children, err := BuildContent(req.Body)
	if err != nil {
		return nil, err
	}

	if req.PageID != "" {
		page, err := a.notion.UpdatePage(ctx, notionclient.PageID(req.PageID), properties)
		if err != nil {
			return nil, err
		}
		if err := a.notion.AppendBlocks(ctx, notionclient.PageID(req.PageID), children); err != nil {
			return nil, err
		}
		return page, nil
	}

	database := notionclient.DatabaseID(req.DatabaseID)
	if database == "" {
		database = a.defaultDatabase
	}
	return a.notion.CreatePage(ctx, database, properties, children)
}

// pushedProperties is what lands in the memory bank page record for a push.
func pushedProperties(req *PushRequest) map[string]interface{} {
	if properties, ok := req.Body.(map[string]interface{}); ok {
		return properties
	}
	return map[string]interface{}{"content": fmt.Sprint(req.Body)}
}

func pageDocument(page *notionapi.Page) (responses.Document, error) {
	encoded, err := json.Marshal(page)
	if err != nil {
		return nil, err
	}

	document := responses.Document{}
	if err := json.Unmarshal(encoded, &document); err != nil {
		return nil, err
	}
	return document, nil
}

// ClassifyError maps a push failure to the error_type recorded in the
// memory bank error log.
func ClassifyError(err error) string {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return "NotionAPIError"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "TimeoutError"
	}
	if errors.Is(err, context.Canceled) {
		return "CanceledError"
	}
	return "PushError"
}
