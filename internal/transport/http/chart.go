package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleChart 把权益曲线渲染为 ECharts 折线图页面。
func (s *Server) handleChart(c *gin.Context) {
	rep := s.snapshot()
	if rep == nil || len(rep.History) == 0 {
		c.String(http.StatusNotFound, "no equity history yet")
		return
	}

	xAxis := make([]string, 0, len(rep.History))
	points := make([]opts.LineData, 0, len(rep.History))
	for _, pt := range rep.History {
		xAxis = append(xAxis, pt.Timestamp)
		points = append(points, opts.LineData{Value: pt.Value})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Equity Curve",
			Subtitle: "simulated account value (USDT)",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("Account Value", points,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(c.Writer); err != nil {
		c.String(http.StatusInternalServerError, "render failed: %v", err)
	}
}
