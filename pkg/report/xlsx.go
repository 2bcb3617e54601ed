package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/checkflow/checkflow/pkg/errors"
)

// XLSXWriter renders the report as a workbook with Summary, Cases and
// Deviations sheets.
type XLSXWriter struct{}

// Write implements Writer.
func (xw *XLSXWriter) Write(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := xw.writeSummary(f, r); err != nil {
		return err
	}
	if err := xw.writeCases(f, r); err != nil {
		return err
	}
	if err := xw.writeDeviations(f, r); err != nil {
		return err
	}

	f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "write xlsx report")
	}
	return nil
}

func (xw *XLSXWriter) writeSummary(f *excelize.File, r *Report) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "create summary sheet")
	}

	res := r.Result
	rows := [][]interface{}{
		{"Run ID", r.RunID},
		{"Generated", r.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
		{"Model", r.ModelName},
		{"Model version", r.ModelVersion},
		{"Source", r.Source},
		{"Strict mode", r.Strict},
		{},
		{"Total cases", res.TotalCases},
		{"Skipped cases", res.SkippedCases},
		{"Conformant cases", res.ConformantCases},
		{"Conformance rate (%)", res.ConformanceRate},
		{"Fully conformant cases", res.FullyConformantCase},
		{"Full conformance rate (%)", res.FullConformanceRate},
		{"Average fitness", res.AverageFitness},
		{"Min fitness", res.MinFitness},
		{"Max fitness", res.MaxFitness},
		{"Total deviations", res.TotalDeviations},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrap(err, errors.CodeWriteFailed, "write summary row")
		}
	}
	return nil
}

func (xw *XLSXWriter) writeCases(f *excelize.File, r *Report) error {
	const sheet = "Cases"
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "create cases sheet")
	}

	header := []interface{}{"Case ID", "Conformant", "Fully conformant", "Fitness", "Deviations", "Trace length"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "write cases header")
	}

	for i, cr := range r.Result.CaseResults {
		row := []interface{}{cr.CaseID, cr.IsConformant, cr.IsFullyConformant, cr.FitnessScore, len(cr.Deviations), cr.TraceLength}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrap(err, errors.CodeWriteFailed, "write case row")
		}
	}
	return nil
}

func (xw *XLSXWriter) writeDeviations(f *excelize.File, r *Report) error {
	const sheet = "Deviations"
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "create deviations sheet")
	}

	header := []interface{}{"Case ID", "Kind", "Severity", "Activity", "Position", "Expected", "Actual", "Recommendation"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, errors.CodeWriteFailed, "write deviations header")
	}

	rowIdx := 2
	for _, cr := range r.Result.CaseResults {
		for _, d := range cr.Deviations {
			row := []interface{}{cr.CaseID, string(d.Kind), d.Severity.String(), d.ActivityName, d.Position, d.Expected, d.Actual, d.Recommendation}
			cell := fmt.Sprintf("A%d", rowIdx)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return errors.Wrap(err, errors.CodeWriteFailed, "write deviation row")
			}
			rowIdx++
		}
	}
	return nil
}
