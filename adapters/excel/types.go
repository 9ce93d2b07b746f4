package excel

import (
	"path/filepath"
	"strings"
)

// FileType is the format of an uploaded spreadsheet
type FileType string

const (
	FileTypeXLSX FileType = "xlsx"
	FileTypeCSV  FileType = "csv"
)

// DetectFileType picks the format from a file name; anything but .csv is read as xlsx
func DetectFileType(name string) FileType {
	if strings.ToLower(filepath.Ext(name)) == ".csv" {
		return FileTypeCSV
	}
	return FileTypeXLSX
}

// ReaderConfig controls how a workbook is read
type ReaderConfig struct {
	// Sheet to read; empty means the first sheet
	Sheet string `json:"sheet"`
	// SkipHiddenRows drops hidden rows instead of flagging them
	SkipHiddenRows bool `json:"skip_hidden_rows"`
}

// DefaultReaderConfig reads the first sheet and keeps hidden rows flagged
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{}
}
