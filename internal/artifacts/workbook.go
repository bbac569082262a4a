package artifacts

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// workbookHeaders are the mapping workbook's fixed columns, per spec.md
// §4.10's sponsor-review mapping workbook.
var workbookHeaders = []string{
	"Variable", "Label", "Type", "Length", "Origin", "Source", "Derivation Algorithm", "CT",
}

// WriteMappingWorkbook builds a multi-sheet Excel workbook, one sheet per
// domain, and saves it to path.
//
// Grounded on the teacher's internal/services/excel_service.go (which
// reads workbooks via excelize); this is the write-path counterpart,
// generalized from a single generic table sheet to one sheet per SDTM
// domain with fixed mapping-review columns.
func WriteMappingWorkbook(path string, mappingSpecs map[string]*model.DomainMappingSpec) error {
	f := excelize.NewFile()
	defer f.Close()

	domains := sortedMappingSpecKeys(mappingSpecs)
	if len(domains) == 0 {
		return fmt.Errorf("artifacts: no domains to write to workbook")
	}

	for i, domain := range domains {
		sheet := domain
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("artifacts: rename default sheet to %s: %w", sheet, err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("artifacts: create sheet %s: %w", sheet, err)
			}
		}

		for col, header := range workbookHeaders {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(sheet, cell, header); err != nil {
				return fmt.Errorf("artifacts: write header %s/%s: %w", sheet, header, err)
			}
		}

		for rowIdx, vm := range mappingSpecs[domain].Ordered() {
			row := rowIdx + 2
			values := []interface{}{
				vm.SDTMVariable, vm.Label, string(vm.Type), vm.Length, string(vm.Origin),
				fmt.Sprintf("%s.%s", vm.SourceDataset, vm.SourceVariable), vm.DerivationRule, vm.CodelistCode,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return fmt.Errorf("artifacts: write %s row %d: %w", sheet, row, err)
				}
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("artifacts: save workbook %s: %w", path, err)
	}
	return nil
}
