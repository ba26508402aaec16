package charts

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vicanso/go-charts/v2"

	"github.com/aristath/allocator/internal/modules/backtest"
)

// Service renders backtest reports as PNG line charts.
type Service struct {
	log zerolog.Logger
}

// NewService creates a new chart service.
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "charts").Logger(),
	}
}

// RenderComparison renders the optimized and equal-weight cumulative growth
// curves of a backtest report as a PNG.
func (s *Service) RenderComparison(report *backtest.Report) ([]byte, error) {
	if report == nil || len(report.Optimized.Growth) == 0 {
		return nil, fmt.Errorf("empty backtest report")
	}

	series := [][]float64{report.Optimized.Growth, report.EqualWeight.Growth}
	names := []string{"Optimized", "Equal weight"}

	yMin, yMax := axisRange(series)

	splitNum := 6
	if len(report.Dates) <= 30 {
		splitNum = len(report.Dates) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	title := fmt.Sprintf("Growth of 1: optimized vs equal weight (%d days)", len(report.Dates))

	p, err := charts.LineRender(
		series,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        report.Dates,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}

	s.log.Debug().Int("bytes", len(buf)).Msg("Rendered comparison chart")
	return buf, nil
}

// axisRange returns a padded min/max over every series.
func axisRange(series [][]float64) (float64, float64) {
	minVal, maxVal := series[0][0], series[0][0]
	for _, s := range series {
		for _, v := range s {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}

	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	return minVal - padding, maxVal + padding
}
