package infrastructure

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"

	"recruit-pipeline/domain"
	"recruit-pipeline/pipeline"
)

var reportHeaders = []string{
	"Application", "Candidate", "Stage", "Status",
	"Resume", "MCQ", "Async Interview", "Live Interview", "Overall", "Transitions",
}

// WritePipelineReport renders a job's applications as an Excel workbook:
// one row per candidate plus a per-stage count sheet.
func WritePipelineReport(w io.Writer, job domain.Job, apps []domain.Application) error {
	f := excelize.NewFile()
	defer f.Close()

	const candidates = "Candidates"
	const summary = "Stages"
	if err := f.SetSheetName("Sheet1", candidates); err != nil {
		return errors.Wrap(err, "failed to name sheet")
	}
	if _, err := f.NewSheet(summary); err != nil {
		return errors.Wrap(err, "failed to add sheet")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create header style")
	}

	for i, h := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(candidates, cell, h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(reportHeaders), 1)
	f.SetCellStyle(candidates, "A1", lastHeader, headerStyle)
	f.SetColWidth(candidates, "B", "B", 30)

	counts := make(map[pipeline.Stage]int)
	for i, app := range apps {
		row := i + 2
		counts[app.CurrentStage]++
		values := []interface{}{
			app.ID, app.CandidateName, string(app.CurrentStage), string(app.Status),
			scoreCell(app.ResumeMatchScore), scoreCell(app.TestScore),
			scoreCell(app.InterviewScore), scoreCell(app.LiveInterviewScore),
			app.OverallScore, len(app.StageHistory),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(candidates, cell, v)
		}
	}

	f.SetCellValue(summary, "A1", fmt.Sprintf("Job #%d: %s", job.ID, job.Title))
	f.SetCellValue(summary, "A2", "Stage")
	f.SetCellValue(summary, "B2", "Candidates")
	f.SetCellStyle(summary, "A2", "B2", headerStyle)
	for i, s := range pipeline.Stages() {
		row := i + 3
		f.SetCellValue(summary, fmt.Sprintf("A%d", row), string(s))
		f.SetCellValue(summary, fmt.Sprintf("B%d", row), counts[s])
	}
	f.SetColWidth(summary, "A", "A", 24)

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return nil
}

func scoreCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
