package rnn

import (
	"math/rand" // Для генерации случайных чисел при инициализации весов

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/go-portfolio/go-char-rnn/internal/activation"
	"github.com/go-portfolio/go-char-rnn/internal/vecops"
)

// LearnRate — шаг обновления весов по умолчанию.
const LearnRate = 0.5

// ------------------------- CELL STRUCT -------------------------

// Cell — рекуррентная ячейка размера N: словарь и скрытый слой одного размера.
// Веса и скрытое состояние принадлежат только этой ячейке.
type Cell struct {
	wxh, whh, why *mat.Dense    // Веса: вход->скрытый, скрытый->скрытый, скрытый->выход
	h, hPrev      *mat.VecDense // Скрытое состояние и его копия до последнего шага
	size          int
	learnRate     float64
}

// ------------------------- INITIALIZATION -------------------------

// NewCell создаёт ячейку с нулевыми весами и нулевым скрытым состоянием.
func NewCell(size int) *Cell {
	return &Cell{
		wxh:       mat.NewDense(size, size, nil),
		whh:       mat.NewDense(size, size, nil),
		why:       mat.NewDense(size, size, nil),
		h:         mat.NewVecDense(size, nil),
		hPrev:     mat.NewVecDense(size, nil),
		size:      size,
		learnRate: LearnRate,
	}
}

// NewCellFromWeights создаёт ячейку из копий заданных матриц.
// Все три матрицы должны быть квадратными и одного размера.
func NewCellFromWeights(wxh, whh, why *mat.Dense) (*Cell, error) {
	size, _ := wxh.Dims()
	for _, w := range []*mat.Dense{wxh, whh, why} {
		if r, c := w.Dims(); r != size || c != size {
			return nil, errors.Wrapf(vecops.ErrDimensionMismatch, "weight matrix %dx%d, expected %dx%d", r, c, size, size)
		}
	}
	cell := NewCell(size)
	cell.wxh.Copy(wxh)
	cell.whh.Copy(whh)
	cell.why.Copy(why)
	return cell, nil
}

// Initialise заполняет веса случайными значениями из 201 точки на [-1, 1]
// с шагом 0.01 и обнуляет скрытое состояние.
func (c *Cell) Initialise(rng *rand.Rand) {
	for i := 0; i < c.size; i++ {
		for j := 0; j < c.size; j++ {
			// Случайное целое из [0, 200] отображается в [-1, 1]
			c.wxh.Set(i, j, float64(rng.Intn(201))/100-1)
			c.whh.Set(i, j, float64(rng.Intn(201))/100-1)
			c.why.Set(i, j, float64(rng.Intn(201))/100-1)
		}
	}
	c.ResetHidden()
}

// SetLearnRate меняет шаг обновления весов.
func (c *Cell) SetLearnRate(lr float64) {
	c.learnRate = lr
}

// ResetHidden обнуляет скрытое состояние.
func (c *Cell) ResetHidden() {
	c.h.Zero()
	c.hPrev.Zero()
}

// Size возвращает размер ячейки.
func (c *Cell) Size() int {
	return c.size
}

// Hidden возвращает копию текущего скрытого состояния.
func (c *Cell) Hidden() *mat.VecDense {
	return vecops.Clone(c.h)
}

// PrevHidden возвращает копию скрытого состояния до последнего шага.
func (c *Cell) PrevHidden() *mat.VecDense {
	return vecops.Clone(c.hPrev)
}

// Weights возвращает копии матриц Wxh, Whh, Why.
func (c *Cell) Weights() (wxh, whh, why *mat.Dense) {
	return mat.DenseCopyOf(c.wxh), mat.DenseCopyOf(c.whh), mat.DenseCopyOf(c.why)
}

// ------------------------- FORWARD -------------------------

// Step выполняет один шаг рекурсии и возвращает ненормированный выход Why·h.
// Каждый вызов сдвигает скрытое состояние.
func (c *Cell) Step(x mat.Vector) (*mat.VecDense, error) {
	if x.Len() != c.size {
		return nil, errors.Wrapf(vecops.ErrDimensionMismatch, "input of length %d for cell of size %d", x.Len(), c.size)
	}

	recurrent, err := vecops.Multiply(c.whh, c.h) // Вклад предыдущего скрытого состояния
	if err != nil {
		return nil, err
	}
	input, err := vecops.Multiply(c.wxh, x) // Вклад входного вектора
	if err != nil {
		return nil, err
	}

	c.hPrev.CopyVec(c.h) // Сохраняем состояние до шага для обратного прохода

	a := mat.NewVecDense(c.size, nil)
	a.AddVec(recurrent, input)
	c.h = activation.TanhVec(a) // Новое скрытое состояние

	return vecops.Multiply(c.why, c.h)
}

// ------------------------- BACKPROP -------------------------

// Backward считает градиенты по текущему шагу и сразу обновляет веса.
// Производная берётся только через tanh последнего шага, без развёртки
// по всей последовательности.
func (c *Cell) Backward(input, output, target mat.Vector) error {
	for _, v := range []mat.Vector{input, output, target} {
		if v.Len() != c.size {
			return errors.Wrapf(vecops.ErrDimensionMismatch, "vector of length %d for cell of size %d", v.Len(), c.size)
		}
	}

	p := vecops.Softmax(output) // Вероятности символов

	// Ошибка на выходе: E_y = p - target
	ey := mat.NewVecDense(c.size, nil)
	for i := 0; i < c.size; i++ {
		if target.AtVec(i) == 1 {
			ey.SetVec(i, p.AtVec(i)-1)
		} else {
			ey.SetVec(i, p.AtVec(i))
		}
	}

	// E_Why = E_y ⊗ tanh(h)
	yWhy := activation.TanhVec(c.h)
	var dWhy mat.Dense
	dWhy.Outer(1, ey, yWhy)

	// Общий множитель для Whh и Wxh: Why · (1 - tanh(h)^2)
	yh := mat.NewVecDense(c.size, nil)
	for i := 0; i < c.size; i++ {
		yh.SetVec(i, activation.TanhPrime(c.h.AtVec(i)))
	}
	m, err := vecops.Multiply(c.why, yh)
	if err != nil {
		return err
	}

	// E_Whh = E_y ⊗ (m ⊙ hPrev)
	yWhh := mat.NewVecDense(c.size, nil)
	yWhh.MulElemVec(m, c.hPrev)
	var dWhh mat.Dense
	dWhh.Outer(1, ey, yWhh)

	// E_Wxh = E_y ⊗ (m ⊙ input)
	yWxh := mat.NewVecDense(c.size, nil)
	yWxh.MulElemVec(m, input)
	var dWxh mat.Dense
	dWxh.Outer(1, ey, yWxh)

	c.updateWeights(&dWxh, &dWhh, &dWhy)
	return nil
}

// ------------------------- HELPERS -------------------------

// updateWeights выполняет W -= learnRate * E_W для всех трёх матриц.
func (c *Cell) updateWeights(dWxh, dWhh, dWhy mat.Matrix) {
	var step mat.Dense
	for _, pair := range []struct {
		w    *mat.Dense
		grad mat.Matrix
	}{
		{c.wxh, dWxh}, // Веса входного слоя
		{c.whh, dWhh}, // Веса скрытого слоя
		{c.why, dWhy}, // Веса выходного слоя
	} {
		step.Reset()
		step.Scale(c.learnRate, pair.grad)
		pair.w.Sub(pair.w, &step)
	}
}
