package logging

const (
	PageUUID      = "Page UUID"
	DatabaseUUID  = "Database UUID"
	TaskName      = "Task Name"
	RecordKey     = "Record Key"
	StoreDSN      = "Store DSN"
	ValidationErr = "Failed to validate the provided config"
	StoreInitErr  = "Failed to create the record store"
	PayloadErr    = "Failed to read the push payload"
	PushErr       = "Failed to push the payload to Notion"
	StatusErr     = "Failed to read the memory bank status"
)
