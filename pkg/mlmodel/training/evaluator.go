package training

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/sjwhitworth/golearn/evaluation"
	"gonum.org/v1/gonum/stat"

	"github.com/wwdelhi/congestion/pkg/models"
)

// ClassMetrics holds precision, recall and F1 for one class
type ClassMetrics struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
	Support   int     `json:"support"`
}

// EvaluationMetrics holds classification metrics
type EvaluationMetrics struct {
	Accuracy           float64                    `json:"accuracy"`
	Classes            []string                   `json:"classes"` // Report order
	PerClass           []ClassMetrics             `json:"per_class"`
	MacroPrecision     float64                    `json:"macro_precision"`
	MacroRecall        float64                    `json:"macro_recall"`
	MacroF1            float64                    `json:"macro_f1"`
	WeightedPrecision  float64                    `json:"weighted_precision"`
	WeightedRecall     float64                    `json:"weighted_recall"`
	WeightedF1         float64                    `json:"weighted_f1"`
	ConfusionMatrix    evaluation.ConfusionMatrix `json:"confusion_matrix"` // Actual -> Predicted -> Count
	TotalSamples       int                        `json:"total_samples"`
	CorrectPredictions int                        `json:"correct_predictions"`
}

// Evaluate scores a fitted pipeline on X
func Evaluate(p *Pipeline, X [][]float64, yTrue []int) (*EvaluationMetrics, error) {
	if len(X) == 0 || len(yTrue) == 0 {
		return nil, fmt.Errorf("empty test data")
	}
	if len(X) != len(yTrue) {
		return nil, fmt.Errorf("X and yTrue must have same length")
	}

	yPred, err := p.PredictAll(X)
	if err != nil {
		return nil, err
	}
	return CalculateMetrics(yTrue, yPred)
}

// CalculateMetrics builds the confusion matrix and derived metrics. Classes
// are the union of true and predicted codes in ordinal order, labelled with
// their congestion level names.
func CalculateMetrics(yTrue, yPred []int) (*EvaluationMetrics, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("yTrue and yPred must have same length")
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("empty test data")
	}

	codes := uniqueSorted(append(append([]int(nil), yTrue...), yPred...))
	classes := make([]string, len(codes))
	for i, c := range codes {
		classes[i] = className(c)
	}

	cm := make(evaluation.ConfusionMatrix, len(classes))
	for _, actual := range classes {
		cm[actual] = make(map[string]int, len(classes))
		for _, pred := range classes {
			cm[actual][pred] = 0
		}
	}

	metrics := &EvaluationMetrics{
		Classes:         classes,
		ConfusionMatrix: cm,
		TotalSamples:    len(yTrue),
	}
	support := make(map[string]int, len(classes))
	for i := range yTrue {
		actual, predicted := className(yTrue[i]), className(yPred[i])
		cm[actual][predicted]++
		support[actual]++
		if actual == predicted {
			metrics.CorrectPredictions++
		}
	}

	metrics.Accuracy = zeroNaN(evaluation.GetAccuracy(cm))

	for _, class := range classes {
		cls := ClassMetrics{
			Class:     class,
			Precision: zeroNaN(evaluation.GetPrecision(class, cm)),
			Recall:    zeroNaN(evaluation.GetRecall(class, cm)),
			F1Score:   zeroNaN(evaluation.GetF1Score(class, cm)),
			Support:   support[class],
		}
		metrics.PerClass = append(metrics.PerClass, cls)

		metrics.MacroPrecision += cls.Precision
		metrics.MacroRecall += cls.Recall
		metrics.MacroF1 += cls.F1Score

		w := float64(cls.Support) / float64(metrics.TotalSamples)
		metrics.WeightedPrecision += w * cls.Precision
		metrics.WeightedRecall += w * cls.Recall
		metrics.WeightedF1 += w * cls.F1Score
	}
	n := float64(len(classes))
	metrics.MacroPrecision /= n
	metrics.MacroRecall /= n
	metrics.MacroF1 /= n

	return metrics, nil
}

// Summary converts to the shared performance metrics type
func (m *EvaluationMetrics) Summary() *models.PerformanceMetrics {
	matrix := make([][]int, len(m.Classes))
	for i, actual := range m.Classes {
		matrix[i] = make([]int, len(m.Classes))
		for j, pred := range m.Classes {
			matrix[i][j] = m.ConfusionMatrix[actual][pred]
		}
	}
	return &models.PerformanceMetrics{
		Accuracy:        m.Accuracy,
		MacroPrecision:  m.MacroPrecision,
		MacroRecall:     m.MacroRecall,
		MacroF1:         m.MacroF1,
		ConfusionMatrix: matrix,
	}
}

// WriteConfusionMatrix renders the confusion matrix with actual classes as
// rows and predicted classes as columns.
func (m *EvaluationMetrics) WriteConfusionMatrix(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader(append([]string{"Actual \\ Predicted"}, m.Classes...))
	for _, actual := range m.Classes {
		row := []string{actual}
		for _, pred := range m.Classes {
			row = append(row, strconv.Itoa(m.ConfusionMatrix[actual][pred]))
		}
		table.Append(row)
	}
	table.Render()
}

// WriteClassificationReport renders per-class precision, recall, F1 and
// support followed by accuracy and the macro and weighted averages.
func (m *EvaluationMetrics) WriteClassificationReport(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader([]string{"", "precision", "recall", "f1-score", "support"})
	for _, cls := range m.PerClass {
		table.Append([]string{cls.Class, f2(cls.Precision), f2(cls.Recall), f2(cls.F1Score), strconv.Itoa(cls.Support)})
	}
	total := strconv.Itoa(m.TotalSamples)
	table.Append([]string{"accuracy", "", "", f2(m.Accuracy), total})
	table.Append([]string{"macro avg", f2(m.MacroPrecision), f2(m.MacroRecall), f2(m.MacroF1), total})
	table.Append([]string{"weighted avg", f2(m.WeightedPrecision), f2(m.WeightedRecall), f2(m.WeightedF1), total})
	table.Render()
}

// CrossValidationResults holds k-fold cross-validation results
type CrossValidationResults struct {
	K              int       `json:"k"`
	FoldAccuracies []float64 `json:"fold_accuracies"`
	MeanAccuracy   float64   `json:"mean_accuracy"`
	StdAccuracy    float64   `json:"std_accuracy"`
}

// CrossValidate runs stratified k-fold cross-validation without shuffling,
// refitting a fresh clone of template on every fold.
func CrossValidate(template *Pipeline, X [][]float64, y []int, k int) (*CrossValidationResults, error) {
	if k <= 1 {
		return nil, fmt.Errorf("k must be greater than 1")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("X and y must have same number of samples")
	}
	if len(X) < k {
		return nil, fmt.Errorf("not enough samples for %d-fold cross-validation", k)
	}

	folds, err := stratifiedFolds(y, k)
	if err != nil {
		return nil, err
	}

	results := &CrossValidationResults{
		K:              k,
		FoldAccuracies: make([]float64, k),
	}

	for fold := 0; fold < k; fold++ {
		var trainIdx, valIdx []int
		for i, f := range folds {
			if f == fold {
				valIdx = append(valIdx, i)
			} else {
				trainIdx = append(trainIdx, i)
			}
		}
		trainX, trainY := selectByIndices(X, y, trainIdx)
		valX, valY := selectByIndices(X, y, valIdx)

		p := template.Clone()
		if err := p.Fit(trainX, trainY); err != nil {
			return nil, fmt.Errorf("training failed at fold %d: %w", fold, err)
		}
		metrics, err := Evaluate(p, valX, valY)
		if err != nil {
			return nil, fmt.Errorf("evaluation failed at fold %d: %w", fold, err)
		}
		results.FoldAccuracies[fold] = metrics.Accuracy
	}

	results.MeanAccuracy, results.StdAccuracy = stat.PopMeanStdDev(results.FoldAccuracies, nil)
	return results, nil
}

// stratifiedFolds assigns every sample a fold so each fold holds close to
// the same share of every class. Classes are dealt round-robin over the
// sorted labels to size the folds; samples of a class then fill the folds in
// input order.
func stratifiedFolds(y []int, k int) ([]int, error) {
	classes := uniqueSorted(y)
	largest := 0
	for _, c := range classes {
		largest = max(largest, countOf(y, c))
	}
	if k > largest {
		return nil, fmt.Errorf("%d folds is more than the %d members of the largest class", k, largest)
	}

	sorted := append([]int(nil), y...)
	sort.Ints(sorted)

	// allocation[f][c] is how many samples of class c land in fold f
	classIndex := make(map[int]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}
	allocation := make([][]int, k)
	for f := 0; f < k; f++ {
		allocation[f] = make([]int, len(classes))
		for i := f; i < len(sorted); i += k {
			allocation[f][classIndex[sorted[i]]]++
		}
	}

	folds := make([]int, len(y))
	for ci, c := range classes {
		var assigned []int
		for f := 0; f < k; f++ {
			for n := 0; n < allocation[f][ci]; n++ {
				assigned = append(assigned, f)
			}
		}
		next := 0
		for i, label := range y {
			if label == c {
				folds[i] = assigned[next]
				next++
			}
		}
	}
	return folds, nil
}

func countOf(y []int, c int) int {
	n := 0
	for _, v := range y {
		if v == c {
			n++
		}
	}
	return n
}

func className(code int) string {
	return models.CongestionLevel(code).String()
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func f2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
