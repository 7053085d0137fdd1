package memorybank

import (
	"bytes"
	"encoding/json"
)

const (
	NOTION_SETTINGS_SECTION  = "notion_settings"
	LOGGING_SETTINGS_SECTION = "logging_settings"
	CACHE_SETTINGS_SECTION   = "cache_settings"
)

var validLogLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

func isConfigSection(name string) bool {
	switch name {
	case NOTION_SETTINGS_SECTION, LOGGING_SETTINGS_SECTION, CACHE_SETTINGS_SECTION:
		return true
	}
	return false
}

// applyConfigPatch merges the patch onto current, going through a generic
// map so single keys can be overridden without clobbering their section.
// Unknown sections and unknown keys are rejected.
func applyConfigPatch(current *ConfigCacheRecord, patch map[string]map[string]interface{}) (*ConfigCacheRecord, error) {
	currentBytes, err := json.Marshal(current)
	if err != nil {
		return nil, &StorageError{Record: CONFIG_RECORD_KEY, Err: err}
	}

	raw := map[string]interface{}{}
	if err := json.Unmarshal(currentBytes, &raw); err != nil {
		return nil, &StorageError{Record: CONFIG_RECORD_KEY, Err: err}
	}

	for section, fields := range patch {
		if !isConfigSection(section) {
			return nil, &ValidationError{Field: section, Reason: "unknown configuration section"}
		}

		sectionMap, _ := raw[section].(map[string]interface{})
		if sectionMap == nil {
			sectionMap = map[string]interface{}{}
		}
		for key, value := range fields {
			sectionMap[key] = value
		}
		raw[section] = sectionMap
	}

	mergedBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, &StorageError{Record: CONFIG_RECORD_KEY, Err: err}
	}

	merged := &ConfigCacheRecord{}
	decoder := json.NewDecoder(bytes.NewReader(mergedBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(merged); err != nil {
		return nil, &ValidationError{Field: "config", Reason: err.Error()}
	}
	return merged, nil
}

func validateConfig(record *ConfigCacheRecord) error {
	if record.NotionSettings.RetryAttempts < 0 {
		return &ValidationError{
			Field:  NOTION_SETTINGS_SECTION + ".retry_attempts",
			Reason: "must be >= 0",
		}
	}
	if record.NotionSettings.TimeoutSeconds <= 0 {
		return &ValidationError{
			Field:  NOTION_SETTINGS_SECTION + ".timeout_seconds",
			Reason: "must be > 0",
		}
	}
	if !validLogLevels[record.LoggingSettings.LogLevel] {
		return &ValidationError{
			Field:  LOGGING_SETTINGS_SECTION + ".log_level",
			Reason: "must be one of DEBUG, INFO, WARN, ERROR",
		}
	}
	if record.CacheSettings.TtlSeconds <= 0 {
		return &ValidationError{
			Field:  CACHE_SETTINGS_SECTION + ".ttl_seconds",
			Reason: "must be > 0",
		}
	}
	if record.CacheSettings.MaxEntries <= 0 {
		return &ValidationError{
			Field:  CACHE_SETTINGS_SECTION + ".max_entries",
			Reason: "must be > 0",
		}
	}
	return nil
}
