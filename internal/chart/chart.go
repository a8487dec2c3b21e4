// Package chart renders benchmark samples collected by cmd/minidb-inspect
// bench into a PNG line chart, so insert latency growth across tree depth
// can be eyeballed without opening a spreadsheet.
package chart

import (
	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Sample is one measured insert's position and cost.
type Sample struct {
	N         int64 // row count at the time of the insert
	LatencyNs int64
}

// SaveLatencyChart renders samples as a latency-vs-row-count line chart and
// writes it to path as a PNG.
func SaveLatencyChart(path, title string, samples []Sample) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "rows inserted"
	p.Y.Label.Text = "insert latency (ns)"

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = float64(s.N)
		pts[i].Y = float64(s.LatencyNs)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "chart: new line")
	}
	p.Add(line, plotter.NewGrid())
	p.Legend.Add("insert latency", line)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "chart: save %s", path)
	}
	return nil
}
