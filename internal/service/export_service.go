package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/scrimworks/scrimplan/internal/dto"
	"github.com/scrimworks/scrimplan/internal/interval"
	"github.com/scrimworks/scrimplan/internal/models"
	"github.com/scrimworks/scrimplan/internal/week"
	"github.com/scrimworks/scrimplan/pkg/export"
)

// ExportService renders a week's availability sheet as CSV or PDF. The
// sheet is participants down, days across, with the derived team overlap as
// the final row.
type ExportService struct {
	availability *AvailabilityService
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	coach        string
	logger       *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(availability *AvailabilityService, coach string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		availability: availability,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		coach:        coach,
		logger:       logger,
	}
}

const participantHeader = "Participant"

// WeekSheetCSV renders the week availability grid as CSV bytes.
func (s *ExportService) WeekSheetCSV(ctx context.Context, weekID string) ([]byte, string, error) {
	payload, err := s.availability.GetWeek(ctx, weekID)
	if err != nil {
		return nil, "", err
	}
	data, err := s.csv.Render(s.buildSheet(payload))
	if err != nil {
		return nil, "", err
	}
	return data, sheetFilename(payload, "csv"), nil
}

// WeekSheetPDF renders the week availability grid as a landscape PDF.
func (s *ExportService) WeekSheetPDF(ctx context.Context, weekID string) ([]byte, string, error) {
	payload, err := s.availability.GetWeek(ctx, weekID)
	if err != nil {
		return nil, "", err
	}
	title := fmt.Sprintf("Availability %d week %d", payload.Week.Year, payload.Week.WeekNumber)
	data, err := s.pdf.Render(s.buildSheet(payload), title)
	if err != nil {
		return nil, "", err
	}
	return data, sheetFilename(payload, "pdf"), nil
}

func sheetFilename(payload *dto.WeekAvailability, ext string) string {
	return fmt.Sprintf("availability-%d-w%02d.%s", payload.Week.Year, payload.Week.WeekNumber, ext)
}

func (s *ExportService) buildSheet(payload *dto.WeekAvailability) export.Dataset {
	days := week.Days(payload.Week.StartDate)
	headers := append([]string{participantHeader}, days...)

	byKey := make(map[models.EntryKey]models.AvailabilityEntry, len(payload.Availability))
	for _, entry := range payload.Availability {
		byKey[entry.Key()] = entry
	}
	overlapByDate := make(map[string]models.TeamOverlap, len(payload.Overlaps))
	for _, ov := range payload.Overlaps {
		overlapByDate[ov.Date] = ov
	}

	participants := append([]string{}, s.availability.Roster()...)
	if s.coach != "" {
		participants = append(participants, s.coach)
	}

	rows := make([]map[string]string, 0, len(participants)+1)
	for _, name := range participants {
		row := map[string]string{participantHeader: name}
		for _, day := range days {
			if entry, ok := byKey[models.EntryKey{Date: day, ParticipantName: name}]; ok {
				row[day] = entryLabel(entry)
			}
		}
		rows = append(rows, row)
	}

	teamRow := map[string]string{participantHeader: "Team overlap"}
	for _, day := range days {
		if ov, ok := overlapByDate[day]; ok && ov.HasOverlap && ov.TimeRange != nil {
			teamRow[day] = *ov.TimeRange
		}
	}
	rows = append(rows, teamRow)

	return export.Dataset{Headers: headers, Rows: rows}
}

// entryLabel renders one cell of the sheet.
func entryLabel(entry models.AvailabilityEntry) string {
	var label string
	switch entry.Status {
	case models.StatusUnavailable:
		label = "unavailable"
	case models.StatusAllDay:
		label = interval.FullDayLabel
	case models.StatusAvailable:
		parts := make([]string, 0, len(entry.TimeRanges))
		for _, r := range entry.TimeRanges {
			to := "24:00"
			if r.To != nil {
				to = *r.To
			}
			parts = append(parts, fmt.Sprintf("%s–%s", r.From, to))
		}
		label = strings.Join(parts, ", ")
	}
	if entry.Confidence == models.ConfidenceTentative && label != "" {
		label += " (tentative)"
	}
	return label
}
