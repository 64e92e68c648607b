package ordinal

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Coefficient is one row of the significance table
type Coefficient struct {
	Name     string  `json:"name"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	Z        float64 `json:"z"`
	PValue   float64 `json:"p_value"`
	Lower    float64 `json:"ci_lower"` // 95% interval
	Upper    float64 `json:"ci_upper"`
}

// Summary is the result of an ordered logit fit
type Summary struct {
	Coefficients  []Coefficient `json:"coefficients"` // Features, then thresholds
	Cutpoints     []float64     `json:"cutpoints"`
	LogLikelihood float64       `json:"log_likelihood"`
	AIC           float64       `json:"aic"`
	BIC           float64       `json:"bic"`
	NumObs        int           `json:"num_obs"`
	DFModel       int           `json:"df_model"`
	DFResid       int           `json:"df_resid"`
	Converged     bool          `json:"converged"`
	Iterations    int           `json:"iterations"`
	Status        string        `json:"status"`
}

// Coefficient looks up a row by name
func (s *Summary) Coefficient(name string) (Coefficient, bool) {
	for _, c := range s.Coefficients {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// Write renders the fit statistics followed by the coefficient table
func (s *Summary) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "OrderedModel Results (logit, BFGS)\n"+
		"Log-Likelihood: %.3f\nAIC: %.1f\nBIC: %.1f\n"+
		"No. Observations: %d\nDf Residuals: %d\nDf Model: %d\n"+
		"Converged: %t (%s, %d iterations)\n",
		s.LogLikelihood, s.AIC, s.BIC, s.NumObs, s.DFResid, s.DFModel,
		s.Converged, s.Status, s.Iterations); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader([]string{"", "coef", "std err", "z", "P>|z|", "[0.025", "0.975]"})
	for _, c := range s.Coefficients {
		table.Append([]string{
			c.Name,
			num(c.Estimate, 4),
			num(c.StdErr, 3),
			num(c.Z, 3),
			num(c.PValue, 3),
			num(c.Lower, 3),
			num(c.Upper, 3),
		})
	}
	table.Render()
	return nil
}

func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
