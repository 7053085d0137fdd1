package notionclient

import (
	"context"
	"errors"

	"github.com/jomei/notionapi"
)

type PageID string
type DatabaseID string
type Token string

type (
	NewClient func(notionapi.Token, ...notionapi.ClientOption) *notionapi.Client
)

// NotionClient covers the write-side operations the push agent needs.
type NotionClient interface {
	CreatePage(context.Context, DatabaseID, notionapi.Properties, []notionapi.Block) (*notionapi.Page, error)
	UpdatePage(context.Context, PageID, notionapi.Properties) (*notionapi.Page, error)
	AppendBlocks(context.Context, PageID, []notionapi.Block) error
	GetPageByID(context.Context, PageID) (*notionapi.Page, error)
}

type NotionApiClient struct {
	Client *notionapi.Client
}

// Function to get NotionApiClient instance
func GetNotionApiClient(ctx context.Context, token notionapi.Token, newClient NewClient) NotionClient {
	return &NotionApiClient{
		Client: newClient(token),
	}
}

// Create a new page under the given database
func (c *NotionApiClient) CreatePage(ctx context.Context, parent DatabaseID, properties notionapi.Properties, children []notionapi.Block) (*notionapi.Page, error) {
	if parent == "" {
		return nil, errors.New("empty parent database id")
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(parent),
		},
		Properties: properties,
		Children:   children,
	}

	return c.Client.Page.Create(ctx, req)
}

// Update properties of an existing page. Properties not named in the request
// are left untouched by the Notion API.
func (c *NotionApiClient) UpdatePage(ctx context.Context, id PageID, properties notionapi.Properties) (*notionapi.Page, error) {
	if id == "" {
		return nil, errors.New("empty page id")
	}

	req := &notionapi.PageUpdateRequest{
		Properties: properties,
	}

	return c.Client.Page.Update(ctx, notionapi.PageID(id), req)
}

// Append content blocks to the given page
func (c *NotionApiClient) AppendBlocks(ctx context.Context, id PageID, children []notionapi.Block) error {
	if id == "" {
		return errors.New("empty page id")
	}
	if len(children) == 0 {
		return nil
	}

	req := &notionapi.AppendBlockChildrenRequest{
		Children: children,
	}

	_, err := c.Client.Block.AppendChildren(ctx, notionapi.BlockID(id), req)
	return err
}

// Get Page with given PageID
func (c *NotionApiClient) GetPageByID(ctx context.Context, id PageID) (*notionapi.Page, error) {
	return c.Client.Page.Get(ctx, notionapi.PageID(id))
}
