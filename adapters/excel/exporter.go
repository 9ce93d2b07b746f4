package excel

import (
	"fmt"
	"io"

	"granttrack/domain/proposal"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ApprovedSheet is the sheet name of an approved-list export
const ApprovedSheet = "Approved"

var approvedHeaders = []interface{}{
	"Project", "Requested Amount", "Given Amount", "Funding Status", "Speedtype", "Notes", "Approved At",
}

// WriteApproved writes the approved list as a one-sheet workbook
func WriteApproved(w io.Writer, list proposal.ApprovedList) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ApprovedSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(ApprovedSheet, "A1", &approvedHeaders); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(ApprovedSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}

	for i, rec := range list {
		row := []interface{}{
			rec.ProjectIdentity,
			amountCell(rec.RequestedAmount),
			amountCell(rec.GivenAmount),
			string(rec.FundingStatus),
			rec.Code,
			rec.Notes,
			approvedAtCell(rec),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ApprovedSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write approved row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(ApprovedSheet, "A", "A", 40); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(ApprovedSheet, "B", "G", 18); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// amountCell renders an amount as a number, or blank when unknown
func amountCell(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return ""
	}
	f, _ := d.Decimal.Float64()
	return f
}

func approvedAtCell(rec proposal.ApprovedRecord) string {
	if rec.ApprovedAt.IsZero() {
		return ""
	}
	return rec.ApprovedAt.UTC().Format("2006-01-02")
}
