package output

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/sdpower/token-savings-go/internal/types"
)

// RenderDailyChart plots tokens saved per day as an ASCII line chart.
func RenderDailyChart(days []types.DailyStats, width, height int) string {
	if len(days) == 0 {
		return "No data available"
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	data := make([]float64, len(days))
	for i, day := range days {
		data[i] = float64(day.Metrics.TokensSaved)
	}
	// asciigraph needs two points to draw a line
	if len(data) == 1 {
		data = append(data, data[0])
	}

	caption := fmt.Sprintf("Tokens saved per day (%s to %s)", days[0].Date, days[len(days)-1].Date)
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
