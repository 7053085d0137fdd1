package memorybank

import "time"

const (
	PAGE_RECORD_KEY   = "notion_pages"
	SYNC_RECORD_KEY   = "sync_status"
	ERROR_RECORD_KEY  = "error_log"
	CONFIG_RECORD_KEY = "config_cache"
)

// Status is the lifecycle state of the sync loop.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInitialized, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// PageEntry is the bookkeeping kept per Notion page. Properties is a
// schema-less mapping merged shallowly, last write wins per key.
type PageEntry struct {
	Properties  map[string]interface{} `json:"properties"`
	LastUpdated *time.Time             `json:"last_updated"`
}

type PageMetadata struct {
	TotalPages int        `json:"total_pages"`
	LastSync   *time.Time `json:"last_sync"`
}

type PageRecord struct {
	Pages       map[string]PageEntry `json:"pages"`
	LastUpdated *time.Time           `json:"last_updated"`
	Metadata    PageMetadata         `json:"metadata"`
}

type SyncEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Error     string    `json:"error"`
}

type SyncStatusRecord struct {
	LastSuccessfulSync *time.Time  `json:"last_successful_sync"`
	SyncHistory        []SyncEvent `json:"sync_history"`
	CurrentStatus      Status      `json:"current_status"`
	ErrorCount         int         `json:"error_count"`
	SuccessCount       int         `json:"success_count"`
}

type ErrorEvent struct {
	Timestamp time.Time `json:"timestamp"`
	ErrorType string    `json:"error_type"`
	Message   string    `json:"message"`
}

type ErrorStats struct {
	TotalErrors    int `json:"total_errors"`
	ResolvedErrors int `json:"resolved_errors"`
}

type ErrorLogRecord struct {
	Errors      []ErrorEvent      `json:"errors"`
	Patterns    map[string]int    `json:"patterns"`
	Resolutions map[string]string `json:"resolutions"`
	LastError   *ErrorEvent       `json:"last_error"`
	ErrorStats  ErrorStats        `json:"error_stats"`
}

type NotionSettings struct {
	ApiVersion     string `json:"api_version"`
	RetryAttempts  int    `json:"retry_attempts"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type LoggingSettings struct {
	LogLevel          string `json:"log_level"`
	StructuredLogging bool   `json:"structured_logging"`
}

type CacheSettings struct {
	TtlSeconds int `json:"ttl_seconds"`
	MaxEntries int `json:"max_entries"`
}

type ConfigCacheRecord struct {
	NotionSettings   NotionSettings  `json:"notion_settings"`
	LoggingSettings  LoggingSettings `json:"logging_settings"`
	CacheSettings    CacheSettings   `json:"cache_settings"`
	LastConfigUpdate *time.Time      `json:"last_config_update"`
}

func NewPageRecord() *PageRecord {
	return &PageRecord{
		Pages: map[string]PageEntry{},
	}
}

func NewSyncStatusRecord() *SyncStatusRecord {
	return &SyncStatusRecord{
		SyncHistory:   []SyncEvent{},
		CurrentStatus: StatusInitialized,
	}
}

func NewErrorLogRecord() *ErrorLogRecord {
	return &ErrorLogRecord{
		Errors:      []ErrorEvent{},
		Patterns:    map[string]int{},
		Resolutions: map[string]string{},
	}
}

func NewConfigCacheRecord() *ConfigCacheRecord {
	return &ConfigCacheRecord{
		NotionSettings: NotionSettings{
			ApiVersion:     "2022-06-28",
			RetryAttempts:  3,
			TimeoutSeconds: 30,
		},
		LoggingSettings: LoggingSettings{
			LogLevel:          "INFO",
			StructuredLogging: true,
		},
		CacheSettings: CacheSettings{
			TtlSeconds: 3600,
			MaxEntries: 1000,
		},
	}
}
