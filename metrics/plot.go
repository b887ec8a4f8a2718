package metrics

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/loangate/pkg/errors"
)

// SaveLossCurve はエポックごとの損失を折れ線グラフとして保存する
// 出力形式はファイル拡張子（.png, .svg, .pdf など）で決まる
func SaveLossCurve(path string, losses []float64) error {
	if len(losses) == 0 {
		return errors.NewValueError("SaveLossCurve", "empty loss history")
	}

	p := plot.New()
	p.Title.Text = "Training loss"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "mean log loss"

	pts := make(plotter.XYs, len(losses))
	for i, l := range losses {
		pts[i].X = float64(i)
		pts[i].Y = l
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "SaveLossCurve: failed to build line")
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line, plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "SaveLossCurve: failed to save %s", path)
	}
	return nil
}
