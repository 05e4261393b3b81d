package rnn

import (
	"errors"
	"io"
	"math"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/go-portfolio/go-char-rnn/internal/config"
	"github.com/go-portfolio/go-char-rnn/internal/dataset"
	"github.com/go-portfolio/go-char-rnn/internal/textutils"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func referenceVocabulary(t *testing.T) *textutils.Vocabulary {
	vocab, err := textutils.NewVocabulary(textutils.DefaultSymbols)
	if err != nil {
		t.Fatal(err)
	}
	return vocab
}

func trainingSamples(t *testing.T, vocab *textutils.Vocabulary, text string) []dataset.Sample {
	samples, err := dataset.PrepareData(text, vocab)
	if err != nil {
		t.Fatal(err)
	}
	return samples
}

func TestEndToEndSingleCell(t *testing.T) {
	vocab := referenceVocabulary(t)
	net, err := NewNetworkFromCells(vocab, quietLogger(), referenceCell(t))
	if err != nil {
		t.Fatal(err)
	}
	report, err := net.Train(trainingSamples(t, vocab, "he"), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Losses) != 1 || math.Abs(report.Losses[0]-2.8678324571407643) > referenceTolerance {
		t.Errorf("unexpected losses %v", report.Losses)
	}

	predicted, err := net.Predict('h')
	if err != nil {
		t.Fatal(err)
	}
	assertVector(t, "h", net.Cells()[0].Hidden(), []float64{
		-0.02135570946951294, -0.4529413508854385, 0.25647888285731224, -0.6122934431683091,
	})
	assertVector(t, "y", net.Output(), []float64{
		-0.07674539550514742, -0.15469299144218795, -0.5555678388742221, 0.12565215941504226,
	})
	if predicted != 'o' {
		t.Errorf("expected 'o' but got %q", predicted)
	}
}

func TestEndToEndStackedCells(t *testing.T) {
	vocab := referenceVocabulary(t)
	second, err := NewCellFromWeights(
		dense([][]float64{
			{-0.5, 0.3, 0.2, -0.1},
			{0.4, -0.2, 0.6, 0.15},
			{0.05, 0.35, -0.45, 0.25},
			{0.3, -0.6, 0.1, 0.2},
		}),
		dense([][]float64{
			{0.1, 0.2, -0.3, 0.05},
			{-0.15, 0.25, 0.1, -0.2},
			{0.3, -0.05, 0.15, 0.1},
			{-0.1, 0.4, -0.25, 0.35},
		}),
		dense([][]float64{
			{0.45, -0.3, 0.2, 0.1},
			{-0.35, 0.5, 0.05, -0.15},
			{0.25, 0.1, -0.4, 0.3},
			{-0.05, 0.2, 0.35, -0.5},
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	net, err := NewNetworkFromCells(vocab, quietLogger(), referenceCell(t), second)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := net.Train(trainingSamples(t, vocab, "he"), 1); err != nil {
		t.Fatal(err)
	}

	predicted, err := net.Predict('h')
	if err != nil {
		t.Fatal(err)
	}
	assertVector(t, "h1", net.Cells()[0].Hidden(), []float64{
		-0.02135570946951294, -0.4529413508854385, 0.25647888285731224, -0.6122934431683091,
	})
	assertVector(t, "h2", net.Cells()[1].Hidden(), []float64{
		-0.05962948696573959, 0.20491505720398806, 0.1048495943629132, 0.01252048346556713,
	})
	assertVector(t, "y", net.Output(), []float64{
		-0.07352365313609285, 0.15107600160926593, -0.04090074556449872, 0.06575687760978863,
	})
	if predicted != 'e' {
		t.Errorf("expected 'e' but got %q", predicted)
	}
}

func TestHiddenZeroAfterTraining(t *testing.T) {
	vocab := referenceVocabulary(t)
	samples := trainingSamples(t, vocab, dataset.DefaultText)
	for _, depth := range []int{1, 2, 5, 17} {
		net, err := NewNetwork(vocab, 2, rand.New(rand.NewSource(int64(depth))), quietLogger())
		if err != nil {
			t.Fatal(err)
		}
		report, err := net.Train(samples, depth)
		if err != nil {
			t.Fatal(err)
		}
		if len(report.Losses) != depth {
			t.Errorf("depth %d: expected %d losses but got %d", depth, depth, len(report.Losses))
		}
		for k, cell := range net.Cells() {
			if !mat.Equal(cell.Hidden(), mat.NewVecDense(4, nil)) {
				t.Errorf("depth %d: cell %d hidden state is not zero", depth, k)
			}
		}
	}
}

func TestTrainReportsDegenerateLoss(t *testing.T) {
	vocab := referenceVocabulary(t)
	saturated := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if j >= i {
				saturated.Set(i, j, 40)
			} else {
				saturated.Set(i, j, -40)
			}
		}
	}
	cell, err := NewCellFromWeights(saturated, saturated, saturated)
	if err != nil {
		t.Fatal(err)
	}
	net, err := NewNetworkFromCells(vocab, quietLogger(), cell)
	if err != nil {
		t.Fatal(err)
	}
	report, err := net.Train(trainingSamples(t, vocab, dataset.DefaultText), 2)
	if err != nil {
		t.Fatal(err)
	}
	if report.Degenerate == 0 {
		t.Error("expected clamped probabilities to be reported")
	}
	if len(report.Losses) != 2 {
		t.Fatalf("expected 2 losses but got %d", len(report.Losses))
	}
	for i, loss := range report.Losses {
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			t.Errorf("epoch %d: loss is not finite: %v", i+1, loss)
		}
	}
}

func TestInferenceKeepsState(t *testing.T) {
	vocab := referenceVocabulary(t)
	net, err := NewNetworkFromCells(vocab, quietLogger(), referenceCell(t))
	if err != nil {
		t.Fatal(err)
	}
	if net.Output() != nil || net.Probabilities() != nil {
		t.Error("expected no output before the first prediction")
	}
	if _, err := net.Predict('h'); err != nil {
		t.Fatal(err)
	}
	first := net.Output()
	if _, err := net.Predict('h'); err != nil {
		t.Fatal(err)
	}
	if mat.Equal(first, net.Output()) {
		t.Error("second query with the same seed should see the carried hidden state")
	}
	if math.Abs(mat.Sum(net.Probabilities())-1) > 1e-12 {
		t.Error("probabilities do not sum to 1")
	}

	net.ResetHidden()
	if _, err := net.Predict('h'); err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(first, net.Output()) {
		t.Error("query after reset should repeat the first output")
	}
}

func TestPredictUnrecognizedSymbol(t *testing.T) {
	vocab := referenceVocabulary(t)
	net, err := NewNetworkFromCells(vocab, quietLogger(), referenceCell(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := net.Predict('x'); !errors.Is(err, textutils.ErrUnrecognizedSymbol) {
		t.Errorf("expected ErrUnrecognizedSymbol but got %v", err)
	}
	if mat.Sum(net.Cells()[0].Hidden()) != 0 {
		t.Error("rejected symbol changed the hidden state")
	}
}

func TestTrainInvalidDepth(t *testing.T) {
	vocab := referenceVocabulary(t)
	net, err := NewNetwork(vocab, 1, rand.New(rand.NewSource(1)), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	for _, depth := range []int{0, -3} {
		if _, err := net.Train(trainingSamples(t, vocab, dataset.DefaultText), depth); !errors.Is(err, config.ErrInvalidDepth) {
			t.Errorf("depth %d: expected ErrInvalidDepth but got %v", depth, err)
		}
	}
}

func TestNewNetworkErrors(t *testing.T) {
	vocab := referenceVocabulary(t)
	if _, err := NewNetwork(vocab, 0, rand.New(rand.NewSource(1)), nil); err == nil {
		t.Error("expected error for zero layers")
	}
	if _, err := NewNetworkFromCells(vocab, nil, NewCell(3)); err == nil {
		t.Error("expected error for a cell of the wrong size")
	}
}
