package training

import (
	"fmt"
	"io"
	"strings"
)

// WriteReport prints accuracies, the overfitting check, cross-validation
// scores, the test confusion matrix and the test classification report.
func (r *TrainingResult) WriteReport(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Features (%d): %s\n", len(r.Pipeline.Features), strings.Join(r.Pipeline.Features, ", "))
	fmt.Fprintf(&b, "Training rows: %d, test rows: %d\n\n", r.TrainingRows, r.TestRows)

	fmt.Fprintf(&b, "Train Accuracy: %.4f\n", r.TrainMetrics.Accuracy)
	fmt.Fprintf(&b, "Test Accuracy: %.4f\n", r.TestMetrics.Accuracy)
	fmt.Fprintf(&b, "Overfitting gap: %.4f\n", r.Gap)
	if r.Overfitting {
		b.WriteString("Warning: train accuracy exceeds test accuracy by more than the threshold, the model may be overfitting\n")
	} else {
		b.WriteString("Model generalizes well\n")
	}

	if r.CV != nil {
		scores := make([]string, len(r.CV.FoldAccuracies))
		for i, a := range r.CV.FoldAccuracies {
			scores[i] = fmt.Sprintf("%.4f", a)
		}
		fmt.Fprintf(&b, "\nCross-validation accuracy (%d folds): [%s]\n", r.CV.K, strings.Join(scores, " "))
		fmt.Fprintf(&b, "Mean CV accuracy: %.4f (std %.4f)\n", r.CV.MeanAccuracy, r.CV.StdAccuracy)
	}

	b.WriteString("\nConfusion Matrix (test):\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	r.TestMetrics.WriteConfusionMatrix(w)

	if _, err := io.WriteString(w, "\nClassification Report (test):\n"); err != nil {
		return err
	}
	r.TestMetrics.WriteClassificationReport(w)
	return nil
}
