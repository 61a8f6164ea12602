package bayes

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// InterceptName labels the intercept in summaries
const InterceptName = "(Intercept)"

// Design is a predictor matrix without the intercept column
type Design struct {
	Names []string
	X     *mat.Dense
}

// NewDesign builds a design from row-major predictor values
func NewDesign(names []string, rows [][]float64) (*Design, error) {
	p := len(names)
	if len(rows) == 0 || p == 0 {
		return nil, fmt.Errorf("design needs rows and predictors, got %d x %d", len(rows), p)
	}
	data := make([]float64, 0, len(rows)*p)
	for i, r := range rows {
		if len(r) != p {
			return nil, fmt.Errorf("design row %d has %d values, want %d", i, len(r), p)
		}
		data = append(data, r...)
	}
	return &Design{Names: append([]string(nil), names...), X: mat.NewDense(len(rows), p, data)}, nil
}

// Rows returns the number of observations
func (d *Design) Rows() int {
	r, _ := d.X.Dims()
	return r
}

// Cols returns the number of predictors
func (d *Design) Cols() int { return len(d.Names) }

// Row returns a copy of row i
func (d *Design) Row(i int) []float64 {
	return mat.Row(nil, i, d.X)
}

// columnMoments returns the mean and sample SD of every predictor
func (d *Design) columnMoments() (means, sds []float64) {
	p := d.Cols()
	means = make([]float64, p)
	sds = make([]float64, p)
	for j := 0; j < p; j++ {
		col := mat.Col(nil, j, d.X)
		means[j], sds[j] = stat.MeanStdDev(col, nil)
	}
	return means, sds
}

// priorScales returns the divisor of each column's autoscaled coefficient
// prior: the range for two-valued columns such as borough indicators, the
// standard deviation otherwise.
func (d *Design) priorScales(sds []float64) []float64 {
	scales := append([]float64(nil), sds...)
	for j := range scales {
		col := mat.Col(nil, j, d.X)
		lo, hi := floats.Min(col), floats.Max(col)
		if lo != hi && twoValued(col, lo, hi) {
			scales[j] = hi - lo
		}
	}
	return scales
}

func twoValued(col []float64, lo, hi float64) bool {
	for _, v := range col {
		if v != lo && v != hi {
			return false
		}
	}
	return true
}

// Index returns the column of a named predictor, or -1
func (d *Design) Index(name string) int {
	for j, n := range d.Names {
		if n == name {
			return j
		}
	}
	return -1
}
