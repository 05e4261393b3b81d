package rnn

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/go-portfolio/go-char-rnn/internal/config"
	"github.com/go-portfolio/go-char-rnn/internal/dataset"
	"github.com/go-portfolio/go-char-rnn/internal/textutils"
	"github.com/go-portfolio/go-char-rnn/internal/vecops"
)

// Network — стек ячеек над одним словарём. Первая ячейка получает one-hot
// символа, каждая следующая — softmax выхода предыдущей.
type Network struct {
	cells  []*Cell
	vocab  *textutils.Vocabulary
	logger *logrus.Logger
	last   *mat.VecDense // Последний выход верхней ячейки
}

// Report — итог обучения.
type Report struct {
	Losses     []float64 // Средняя потеря верхней ячейки по эпохам
	Degenerate int       // Сколько раз потеря была вычислена с прижатыми вероятностями
}

// NewNetwork создаёт стек из layers ячеек размера словаря, инициализированных из rng по порядку.
func NewNetwork(vocab *textutils.Vocabulary, layers int, rng *rand.Rand, logger *logrus.Logger) (*Network, error) {
	if layers < 1 {
		return nil, errors.Errorf("number of layers must be positive, got %d", layers)
	}
	cells := make([]*Cell, layers)
	for i := range cells {
		cells[i] = NewCell(vocab.Size())
		cells[i].Initialise(rng)
	}
	return NewNetworkFromCells(vocab, logger, cells...)
}

// NewNetworkFromCells собирает стек из готовых ячеек.
func NewNetworkFromCells(vocab *textutils.Vocabulary, logger *logrus.Logger, cells ...*Cell) (*Network, error) {
	if len(cells) == 0 {
		return nil, errors.New("network needs at least one cell")
	}
	for i, cell := range cells {
		if cell.Size() != vocab.Size() {
			return nil, errors.Wrapf(vecops.ErrDimensionMismatch, "cell %d has size %d, vocabulary has %d symbols", i, cell.Size(), vocab.Size())
		}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Network{cells: cells, vocab: vocab, logger: logger}, nil
}

// Cells возвращает ячейки стека снизу вверх.
func (n *Network) Cells() []*Cell {
	return n.cells
}

// Vocabulary возвращает словарь сети.
func (n *Network) Vocabulary() *textutils.Vocabulary {
	return n.vocab
}

// SetLearnRate меняет шаг обновления во всех ячейках.
func (n *Network) SetLearnRate(lr float64) {
	for _, cell := range n.cells {
		cell.SetLearnRate(lr)
	}
}

// ResetHidden обнуляет скрытое состояние всех ячеек.
func (n *Network) ResetHidden() {
	for _, cell := range n.cells {
		cell.ResetHidden()
	}
}

// ------------------------- TRAIN -------------------------

// Train проходит depth эпох по обучающим переходам. После каждой эпохи
// скрытое состояние всех ячеек обнуляется.
func (n *Network) Train(samples []dataset.Sample, depth int) (*Report, error) {
	if depth <= 0 {
		return nil, errors.Wrapf(config.ErrInvalidDepth, "%d", depth)
	}
	if len(samples) == 0 {
		return nil, errors.New("no training samples")
	}

	n.logger.WithFields(logrus.Fields{
		"epochs":  depth,
		"layers":  len(n.cells),
		"samples": len(samples),
	}).Info("Starting training")

	report := &Report{Losses: make([]float64, 0, depth)}
	for epoch := 1; epoch <= depth; epoch++ {
		total := 0.0
		for i, sample := range samples {
			loss, err := n.trainStep(sample)
			if err != nil {
				return nil, errors.Wrapf(err, "epoch %d, sample %d", epoch, i)
			}
			if loss.Degenerate {
				report.Degenerate++
				n.logger.WithFields(logrus.Fields{
					"epoch":  epoch,
					"sample": i,
				}).Warn("Loss computed on clamped probabilities")
			}
			total += loss.Value
		}

		// Сбрасываем скрытое состояние в исходное
		n.ResetHidden()

		mean := total / float64(len(samples))
		report.Losses = append(report.Losses, mean)
		n.logger.WithFields(logrus.Fields{
			"epoch": epoch,
			"loss":  mean,
		}).Debug("Epoch complete")
	}

	n.logger.WithFields(logrus.Fields{
		"final_loss": report.Losses[len(report.Losses)-1],
		"degenerate": report.Degenerate,
	}).Info("Training complete")
	return report, nil
}

// trainStep делает прямой проход по стеку и обратный проход в каждой ячейке.
// Все ячейки учатся на одной и той же цели; ячейка k получает в Backward
// сырой выход ячейки k-1, хотя на прямом проходе видела его softmax.
func (n *Network) trainStep(sample dataset.Sample) (Loss, error) {
	outputs, err := n.Forward(sample.Input)
	if err != nil {
		return Loss{}, err
	}

	loss, err := CrossEntropy(sample.Target, outputs[len(outputs)-1])
	if err != nil {
		return Loss{}, err
	}

	var input mat.Vector = sample.Input
	for k, cell := range n.cells {
		if err := cell.Backward(input, outputs[k], sample.Target); err != nil {
			return Loss{}, errors.Wrapf(err, "cell %d", k)
		}
		input = outputs[k]
	}
	return loss, nil
}

// ------------------------- FORWARD -------------------------

// Forward делает по одному шагу в каждой ячейке и возвращает сырые выходы всех ячеек.
func (n *Network) Forward(x mat.Vector) ([]*mat.VecDense, error) {
	outputs := make([]*mat.VecDense, len(n.cells))
	input := x
	for k, cell := range n.cells {
		out, err := cell.Step(input)
		if err != nil {
			return nil, errors.Wrapf(err, "cell %d", k)
		}
		outputs[k] = out
		input = vecops.Softmax(out) // Следующая ячейка получает распределение
	}
	return outputs, nil
}

// ------------------------- PREDICTION -------------------------

// Predict делает один шаг от символа seed и возвращает наиболее вероятный
// следующий символ. Скрытое состояние между вызовами сохраняется.
// Символ вне словаря возвращает ErrUnrecognizedSymbol и не меняет состояние.
func (n *Network) Predict(seed rune) (rune, error) {
	x, err := n.vocab.Encode(seed)
	if err != nil {
		return 0, err
	}
	outputs, err := n.Forward(x)
	if err != nil {
		return 0, err
	}
	n.last = outputs[len(outputs)-1]

	predIdx := vecops.Argmax(n.last) // Индекс максимального значения
	predicted, err := n.vocab.Decode(predIdx)
	if err != nil {
		return 0, err
	}

	n.logger.WithFields(logrus.Fields{
		"seed":      string(seed),
		"predicted": string(predicted),
	}).Debug("Prediction")
	return predicted, nil
}

// Output возвращает копию последнего выхода верхней ячейки или nil,
// если предсказаний ещё не было.
func (n *Network) Output() *mat.VecDense {
	if n.last == nil {
		return nil
	}
	return vecops.Clone(n.last)
}

// Probabilities возвращает softmax последнего выхода или nil.
func (n *Network) Probabilities() *mat.VecDense {
	if n.last == nil {
		return nil
	}
	return vecops.Softmax(n.last)
}
