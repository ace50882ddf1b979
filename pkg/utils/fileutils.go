// pkg/utils/fileutils.go
package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

/*
SaveToFile writes data to path/filename, creating the directory if needed.

Strings and byte slices are written as-is; anything else is encoded as
indented JSON. The content goes to a temporary file first and is renamed into
place, so a reader never sees a half-written report.

Parameters:
  - path: The directory where the file will be saved.
  - filename: The name of the file.
  - data: The data to write.

Returns:
  - error: An error object if the save fails, otherwise nil.
*/
func SaveToFile(path string, filename string, data interface{}) error {
	var output []byte
	switch v := data.(type) {
	case string:
		output = []byte(v)
	case []byte:
		output = v
	default:
		encoded, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal data: %w", err)
		}
		output = encoded
	}

	if err := CreateDirectoryIfNotExist(path); err != nil {
		return err
	}

	fullPath := filepath.Join(path, filename)
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, output, 0o644); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", fullPath, err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", fullPath, err)
	}
	return nil
}

/*
LoadFromFile reads JSON or text data from a specified file path.

Parameters:
  - path: The path to the file.

Returns:
  - []byte: The content of the file.
  - error: An error object if reading fails, otherwise nil.
*/
func LoadFromFile(path string) ([]byte, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file %s does not exist: %w", path, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return content, nil
}

/*
CreateDirectoryIfNotExist checks if a directory exists, and creates it if it doesn't.

Parameters:
  - path: The directory path.

Returns:
  - error: An error object if the directory cannot be created, otherwise nil.
*/
func CreateDirectoryIfNotExist(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err = os.MkdirAll(path, 0755)
		if err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}
	return nil
}

// TimestampLayout is the time format used in report and archive file names.
const TimestampLayout = "2006-01-02_15-04-05"

/*
GetTimestamp generates a formatted timestamp string.

Returns:
  - string: The current local time in TimestampLayout.
*/
func GetTimestamp() string {
	return time.Now().Format(TimestampLayout)
}

/*
ReportName builds a run report file name such as "run_2024-03-09_06-30-15.json".

Parameters:
  - prefix: The leading part of the name.
  - t: The time stamped into the name.
*/
func ReportName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.json", prefix, t.Format(TimestampLayout))
}

/*
SaveReport writes data as indented JSON into dir under a timestamped name.
A second report written in the same second overwrites the first.

Returns:
  - string: The path of the written report.
  - error: An error object if the save fails, otherwise nil.
*/
func SaveReport(dir, prefix string, data interface{}) (string, error) {
	name := ReportName(prefix, time.Now())
	if err := SaveToFile(dir, name, data); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
