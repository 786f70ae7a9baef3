package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/law4percent/checkme-api/internal/models"
	appErrors "github.com/law4percent/checkme-api/pkg/errors"
	"github.com/law4percent/checkme-api/pkg/export"
)

type sheetLister interface {
	ListSheets(ctx context.Context, ownerID, code string) ([]models.SheetView, error)
}

type exportAssessmentReader interface {
	FindByCode(ctx context.Context, ownerID, code string) (*models.Assessment, bool, error)
}

// ExportFile is a rendered report ready for an attachment response.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders score reports for an assessment as CSV or PDF.
type ExportService struct {
	sheets      sheetLister
	assessments exportAssessmentReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(sheets sheetLister, assessments exportAssessmentReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		sheets:      sheets,
		assessments: assessments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// ScoreReport renders the assessment's scores in the requested format
// ("csv" or "pdf").
func (s *ExportService) ScoreReport(ctx context.Context, ownerID, code, format string) (*ExportFile, error) {
	assessment, found, err := s.assessments.FindByCode(ctx, ownerID, code)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
	}

	views, err := s.sheets.ListSheets(ctx, ownerID, code)
	if err != nil {
		return nil, err
	}
	dataset := buildScoreDataset(views)

	switch format {
	case "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("%s-scores.csv", code),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case "pdf":
		data, err := s.pdf.Render(dataset, assessment.Name)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("%s-scores.pdf", code),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func buildScoreDataset(views []models.SheetView) export.Dataset {
	headers := []string{"School ID", "Student", "Score", "Total", "Final"}
	rows := make([]map[string]string, 0, len(views))
	scoreSum := 0
	finalCount := 0
	for _, v := range views {
		rows = append(rows, map[string]string{
			"School ID": v.SchoolID,
			"Student":   v.DisplayName,
			"Score":     strconv.Itoa(v.TotalScore),
			"Total":     strconv.Itoa(v.TotalQuestions),
			"Final":     strconv.FormatBool(v.IsFinal),
		})
		scoreSum += v.TotalScore
		if v.IsFinal {
			finalCount++
		}
	}

	summary := []export.SummaryLine{
		{Label: "Sheets", Value: strconv.Itoa(len(views))},
		{Label: "Finalized", Value: strconv.Itoa(finalCount)},
	}
	if len(views) > 0 {
		avg := float64(scoreSum) / float64(len(views))
		summary = append(summary, export.SummaryLine{Label: "Average score", Value: fmt.Sprintf("%.2f", avg)})
	}

	return export.Dataset{Headers: headers, Rows: rows, Summary: summary}
}
