package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jomei/notionapi"
)

func CheckIfDirExists(dirPath string) error {
	info, err := os.Stat(dirPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return nil
}

func CreateDirectory(dirPath string) error {
	return os.MkdirAll(dirPath, 0755)
}

func ReadJsonFile(filePath string) ([]byte, error) {
	byteValue, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return byteValue, nil
}

func ParsePageJsonString(jsonBytes []byte) (*notionapi.Page, error) {
	page := &notionapi.Page{}
	err := json.Unmarshal(jsonBytes, &page)
	if err != nil {
		return nil, err
	}
	return page, nil
}
