package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/rainbowlabs/notionpush/src/agent"
	"github.com/rainbowlabs/notionpush/src/memorybank"
	"github.com/rainbowlabs/notionpush/src/notionclient"
	"github.com/rainbowlabs/notionpush/src/responses"
	"github.com/rainbowlabs/notionpush/src/store"
	"github.com/rainbowlabs/notionpush/src/tasks"
	"github.com/stretchr/testify/assert"
)

const (
	PAGE_UUID     = "05034203-2870-4bc8-b1f9-22c0ae6e56ba"
	DATABASE_UUID = "c097b90b-2dc7-4dda-a2e1-a41e8a5e1a96"
)

// Mocking the NotionClient used by the agent.
type MockedNotionClient struct {
	page *notionapi.Page
	err  error

	createdParent notionclient.DatabaseID
	updatedPage   notionclient.PageID
	appendedPage  notionclient.PageID
}

func (c *MockedNotionClient) CreatePage(ctx context.Context, parent notionclient.DatabaseID, properties notionapi.Properties, children []notionapi.Block) (*notionapi.Page, error) {
	c.createdParent = parent
	return c.page, c.err
}

func (c *MockedNotionClient) UpdatePage(ctx context.Context, id notionclient.PageID, properties notionapi.Properties) (*notionapi.Page, error) {
	c.updatedPage = id
	return c.page, c.err
}

func (c *MockedNotionClient) AppendBlocks(ctx context.Context, id notionclient.PageID, children []notionapi.Block) error {
	c.appendedPage = id
	return c.err
}

func (c *MockedNotionClient) GetPageByID(ctx context.Context, id notionclient.PageID) (*notionapi.Page, error) {
	return c.page, c.err
}

type testFixture struct {
	agent         *agent.Agent
	notion        *MockedNotionClient
	bank          *memorybank.MemoryBank
	tracker       *tasks.Tracker
	responseStore *responses.Store
}

func getTestFixture(notion *MockedNotionClient, defaultDatabase notionclient.DatabaseID) *testFixture {
	recordStore := store.GetMemoryStore()
	bank := memorybank.GetMemoryBank(recordStore)
	tracker := tasks.GetTracker(recordStore)
	responseStore := responses.GetResponseStore(recordStore)

	return &testFixture{
		agent:         agent.GetAgent(notion, bank, tracker, responseStore, defaultDatabase),
		notion:        notion,
		bank:          bank,
		tracker:       tracker,
		responseStore: responseStore,
	}
}

func TestParsePushRequest(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{
			name:    "Valid payload",
			payload: `{"body": {"title": "x"}, "task_name": "t1"}`,
			wantErr: nil,
		},
		{
			name:    "Missing body field",
			payload: `{"task_name": "t1"}`,
			wantErr: agent.ErrMissingBody,
		},
		{
			name:    "Invalid JSON",
			payload: `{"body":`,
			wantErr: nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req, err := agent.ParsePushRequest([]byte(test.payload))

			if test.name == "Valid payload" {
				assert.Nil(t, err)
				assert.Equal(t, "t1", req.TaskName)
				return
			}

			assert.Nil(t, req)
			assert.NotNil(t, err)
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
			}
		})
	}
}

func TestPushCreatesPageInDatabase(t *testing.T) {
	ctx := context.Background()
	notion := &MockedNotionClient{
		page: &notionapi.Page{ID: notionapi.ObjectID(PAGE_UUID)},
	}
	fixture := getTestFixture(notion, "")

	page, err := fixture.agent.Push(ctx, &agent.PushRequest{
		Body:       map[string]interface{}{"title": "Weekly report"},
		DatabaseID: DATABASE_UUID,
		TaskName:   "weekly-report",
		Collection: "applications",
	})

	assert.Nil(t, err)
	assert.Equal(t, PAGE_UUID, string(page.ID))
	assert.Equal(t, notionclient.DatabaseID(DATABASE_UUID), notion.createdParent)

	entry, err := fixture.bank.GetPage(ctx, PAGE_UUID)
	assert.Nil(t, err)
	assert.Equal(t, "Weekly report", entry.Properties["title"])

	syncStatus, err := fixture.bank.GetSyncStatus(ctx)
	assert.Nil(t, err)
	assert.Equal(t, memorybank.StatusCompleted, syncStatus.CurrentStatus)
	assert.Equal(t, 1, syncStatus.SuccessCount)
	assert.Equal(t, 0, syncStatus.ErrorCount)
	assert.NotNil(t, syncStatus.LastSuccessfulSync)

	info, err := fixture.tracker.GetStatus(ctx, "weekly-report")
	assert.Nil(t, err)
	assert.Equal(t, tasks.StatusCompleted, info.Status)

	archived, err := fixture.responseStore.List(ctx, "applications", 0)
	assert.Nil(t, err)
	assert.Len(t, archived, 1)
	assert.Equal(t, PAGE_UUID, archived[0]["id"])
}

func TestPushFallsBackToDefaultDatabase(t *testing.T) {
	ctx := context.Background()
	notion := &MockedNotionClient{
		page: &notionapi.Page{ID: notionapi.ObjectID(PAGE_UUID)},
	}
	fixture := getTestFixture(notion, notionclient.DatabaseID(DATABASE_UUID))

	_, err := fixture.agent.Push(ctx, &agent.PushRequest{
		Body: map[string]interface{}{"title": "x"},
	})

	assert.Nil(t, err)
	assert.Equal(t, notionclient.DatabaseID(DATABASE_UUID), notion.createdParent)
}

func TestPushUpdatesExistingPage(t *testing.T) {
	ctx := context.Background()
	notion := &MockedNotionClient{
		page: &notionapi.Page{ID: notionapi.ObjectID(PAGE_UUID)},
	}
	fixture := getTestFixture(notion, "")

	page, err := fixture.agent.Push(ctx, &agent.PushRequest{
		Body:   "appended paragraph",
		PageID: PAGE_UUID,
	})

	assert.Nil(t, err)
	assert.Equal(t, PAGE_UUID, string(page.ID))
	assert.Equal(t, notionclient.PageID(PAGE_UUID), notion.updatedPage)
	assert.Equal(t, notionclient.PageID(PAGE_UUID), notion.appendedPage)

	entry, err := fixture.bank.GetPage(ctx, PAGE_UUID)
	assert.Nil(t, err)
	assert.Equal(t, "appended paragraph", entry.Properties["content"])
}

func TestPushRecordsFailure(t *testing.T) {
	ctx := context.Background()
	notion := &MockedNotionClient{err: errors.New("api down")}
	fixture := getTestFixture(notion, "")

	_, err := fixture.agent.Push(ctx, &agent.PushRequest{
		Body:       map[string]interface{}{"title": "x"},
		DatabaseID: DATABASE_UUID,
		TaskName:   "doomed",
	})
	assert.NotNil(t, err)

	syncStatus, err := fixture.bank.GetSyncStatus(ctx)
	assert.Nil(t, err)
	assert.Equal(t, memorybank.StatusFailed, syncStatus.CurrentStatus)
	assert.Equal(t, 1, syncStatus.ErrorCount)
	assert.Nil(t, syncStatus.LastSuccessfulSync)

	errorLog, err := fixture.bank.GetErrorLog(ctx)
	assert.Nil(t, err)
	assert.Equal(t, 1, errorLog.ErrorStats.TotalErrors)
	assert.Equal(t, "PushError", errorLog.LastError.ErrorType)
	assert.Equal(t, "api down", errorLog.LastError.Message)

	info, err := fixture.tracker.GetStatus(ctx, "doomed")
	assert.Nil(t, err)
	assert.Equal(t, tasks.StatusFailed, info.Status)
	assert.Equal(t, "api down", info.Error)
}

func TestPushWithoutBody(t *testing.T) {
	fixture := getTestFixture(&MockedNotionClient{}, "")

	_, err := fixture.agent.Push(context.Background(), &agent.PushRequest{})
	assert.ErrorIs(t, err, agent.ErrMissingBody)
}

func TestDummyPushSkipsNotionApi(t *testing.T) {
	ctx := context.Background()
	notion := &MockedNotionClient{err: errors.New("must not be called")}
	fixture := getTestFixture(notion, "")

	page, err := fixture.agent.Push(ctx, &agent.PushRequest{
		Body:  map[string]interface{}{"title": "x"},
		Dummy: true,
	})

	assert.Nil(t, err)
	assert.NotEmpty(t, string(page.ID))
	assert.Empty(t, notion.createdParent)
	assert.Empty(t, notion.updatedPage)

	syncStatus, err := fixture.bank.GetSyncStatus(ctx)
	assert.Nil(t, err)
	assert.Equal(t, memorybank.StatusCompleted, syncStatus.CurrentStatus)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		errorType string
	}{
		{
			name:      "Notion API error",
			err:       &notionapi.Error{Status: 429, Code: "rate_limited"},
			errorType: "NotionAPIError",
		},
		{
			name:      "Deadline exceeded",
			err:       context.DeadlineExceeded,
			errorType: "TimeoutError",
		},
		{
			name:      "Canceled",
			err:       context.Canceled,
			errorType: "CanceledError",
		},
		{
			name:      "Anything else",
			err:       errors.New("boom"),
			errorType: "PushError",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.errorType, agent.ClassifyError(test.err))
		})
	}
}
