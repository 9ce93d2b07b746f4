package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"granttrack/domain/proposal"
	"granttrack/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader reads Excel and CSV files into datasets
type DataReader struct {
	filePath string
	fileType FileType
	config   ReaderConfig
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	return &DataReader{
		filePath: filePath,
		fileType: DetectFileType(filePath),
		config:   DefaultReaderConfig(),
		logger:   internal.DefaultLogger.Component("DataReader"),
	}
}

// WithConfig replaces the reader configuration
func (r *DataReader) WithConfig(cfg ReaderConfig) *DataReader {
	r.config = cfg
	return r
}

// ReadDataset reads the file into a dataset. An empty name uses the file's base name.
func (r *DataReader) ReadDataset(name string) (*proposal.Dataset, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(string(r.fileType)), r.filePath)
		}
		return nil, fmt.Errorf("failed to open %s: %w", r.filePath, err)
	}
	defer file.Close()

	r.logger.Debug("Starting to read %s file: %s", r.fileType, r.filePath)
	if strings.TrimSpace(name) == "" {
		name = strings.TrimSuffix(filepath.Base(r.filePath), filepath.Ext(r.filePath))
	}
	return ReadDatasetFrom(file, r.fileType, name, r.config)
}

// ReadDatasetFrom reads an uploaded spreadsheet stream into a dataset
func ReadDatasetFrom(src io.Reader, kind FileType, name string, cfg ReaderConfig) (*proposal.Dataset, error) {
	logger := internal.DefaultLogger.Component("DataReader")
	start := time.Now()

	var (
		tbl *table
		err error
	)
	switch kind {
	case FileTypeCSV:
		tbl, err = readCSV(src)
	case FileTypeXLSX:
		tbl, err = readWorkbook(src, cfg)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", kind)
	}
	if err != nil {
		return nil, err
	}

	ds, err := tbl.toDataset(name, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("%s file processed (%d columns, %d rows) in %.2fms",
		strings.ToUpper(string(kind)), len(ds.Headers), len(ds.Rows), float64(time.Since(start).Nanoseconds())/1e6)
	return ds, nil
}

// table is a sheet before headers are cleaned up
type table struct {
	records [][]string
	links   map[[2]int]string
	hidden  map[int]bool
}

func readCSV(src io.Reader) (*table, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return &table{records: records}, nil
}

func readWorkbook(src io.Reader, cfg ReaderConfig) (*table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := cfg.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheet, err)
	}

	t := &table{records: records, links: make(map[[2]int]string), hidden: make(map[int]bool)}
	for i := 1; i < len(records); i++ {
		visible, err := f.GetRowVisible(sheet, i+1)
		if err == nil && !visible {
			t.hidden[i] = true
		}
		for j := range records[i] {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				continue
			}
			if ok, target, err := f.GetCellHyperLink(sheet, cell); err == nil && ok && target != "" {
				t.links[[2]int{i, j}] = target
			}
		}
	}
	return t, nil
}

func (t *table) toDataset(name string, cfg ReaderConfig) (*proposal.Dataset, error) {
	if len(t.records) == 0 {
		return nil, fmt.Errorf("spreadsheet must have a header row")
	}
	headers := CleanHeaders(t.records[0])

	rows := make([]proposal.Row, 0, len(t.records)-1)
	for i := 1; i < len(t.records); i++ {
		record := t.records[i]
		if blankRecord(record) {
			continue
		}
		if t.hidden[i] && cfg.SkipHiddenRows {
			continue
		}

		row := proposal.Row{Cells: make(map[string]string, len(headers)), Hidden: t.hidden[i]}
		for j, cell := range record {
			if j >= len(headers) {
				break
			}
			row.Cells[headers[j]] = strings.TrimSpace(cell)
			if link, ok := t.links[[2]int{i, j}]; ok {
				if row.Links == nil {
					row.Links = make(map[string]string)
				}
				row.Links[headers[j]] = link
			}
		}
		rows = append(rows, row)
	}
	return proposal.NewDataset(name, headers, rows)
}

// CleanHeaders trims header cells, names blank ones "Column N" and suffixes
// repeats with " (2)", " (3)" so every header is unique.
func CleanHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		base := h
		for seen[h] > 0 {
			seen[base]++
			h = fmt.Sprintf("%s (%d)", base, seen[base])
		}
		seen[h]++
		headers[i] = h
	}
	return headers
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
