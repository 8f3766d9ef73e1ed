package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/planner"
	"github.com/Dosada05/tennis-planner/storage"
	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	matrixSheet     = "Matice"
)

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ExportService interface {
	// Workbook renders the filtered manager matrix as XLSX.
	Workbook(ctx context.Context, account models.Account, filter ManagerFilter) ([]byte, error)
	// Upload stores the workbook in object storage.
	Upload(ctx context.Context, account models.Account, filter ManagerFilter) (*ExportResult, error)
	// Chart renders played tournaments per player as a PNG bar chart.
	Chart(ctx context.Context, account models.Account, filter ManagerFilter) ([]byte, error)
}

type exportService struct {
	dashboard DashboardService
	uploader  storage.FileUploader
	now       func() time.Time
	logger    *slog.Logger
}

// NewExportService builds the export service; uploader may be nil.
func NewExportService(dashboard DashboardService, uploader storage.FileUploader, logger *slog.Logger) ExportService {
	return &exportService{dashboard: dashboard, uploader: uploader, now: time.Now, logger: logger}
}

func (s *exportService) Workbook(ctx context.Context, account models.Account, filter ManagerFilter) ([]byte, error) {
	view, err := s.dashboard.ManagerView(ctx, account, filter)
	if err != nil {
		return nil, err
	}
	return BuildWorkbook(view.Matrix)
}

func (s *exportService) Upload(ctx context.Context, account models.Account, filter ManagerFilter) (*ExportResult, error) {
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}
	data, err := s.Workbook(ctx, account, filter)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/%s/matice-%s.xlsx", s.now().Format("2006-01-02"), uuid.NewString())
	res, err := s.uploader.Upload(ctx, key, xlsxContentType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}
	s.logger.InfoContext(ctx, "matrix export uploaded", slog.String("key", res.Key), slog.Int("bytes", len(data)))
	return &ExportResult{Key: res.Key, URL: res.Location}, nil
}

func (s *exportService) Chart(ctx context.Context, account models.Account, filter ManagerFilter) ([]byte, error) {
	view, err := s.dashboard.ManagerView(ctx, account, filter)
	if err != nil {
		return nil, err
	}
	return RenderPlayedChart(view.Matrix.Columns)
}

func cellLabel(e *models.Entry) string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s P%d", e.Status, e.Priority)
}

// BuildWorkbook lays the matrix out on one sheet: four tournament columns
// followed by one column per player, and a played/limit footer row.
func BuildWorkbook(m planner.Matrix) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", matrixSheet); err != nil {
		return nil, err
	}

	header := []interface{}{"Týden", "Datum", "Turnaj", "Místo"}
	for _, c := range m.Columns {
		header = append(header, c.Player.Name)
	}
	if err := f.SetSheetRow(matrixSheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, row := range m.Rows {
		values := []interface{}{row.Week, row.Tournament.Date.String(), row.Tournament.Name, row.Tournament.Place}
		for _, cell := range row.Cells {
			values = append(values, cellLabel(cell))
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(matrixSheet, axis, &values); err != nil {
			return nil, err
		}
	}

	footer := []interface{}{"", "", "Odehráno", ""}
	for _, c := range m.Columns {
		footer = append(footer, fmt.Sprintf("%d/%d", c.PlayedCount, c.Limit))
	}
	footerAxis, err := excelize.CoordinatesToCellName(1, len(m.Rows)+2)
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(matrixSheet, footerAxis, &footer); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(matrixSheet, 1, 1, bold); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(matrixSheet, len(m.Rows)+2, len(m.Rows)+2, bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPlayedChart draws one bar per player; the axis ceiling is the
// highest limit so bars read against the season cap.
func RenderPlayedChart(columns []planner.PlayerColumn) ([]byte, error) {
	if len(columns) == 0 {
		columns = []planner.PlayerColumn{{Player: models.Player{Name: "Žádní hráči"}}}
	}

	ceiling := 1.0
	bars := make([]chart.Value, len(columns))
	for i, c := range columns {
		bars[i] = chart.Value{
			Label: c.Player.Name,
			Value: float64(c.PlayedCount),
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("2e7d32"),
				StrokeColor: drawing.ColorFromHex("1b5e20"),
				StrokeWidth: 1,
			},
		}
		ceiling = max(ceiling, float64(c.Limit), float64(c.PlayedCount))
	}

	graph := chart.BarChart{
		Title:      "Odehrané turnaje",
		Width:      max(400, 100*len(columns)+120),
		Height:     400,
		BarWidth:   50,
		BarSpacing: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: ceiling},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buffer.Bytes(), nil
}
