// Package vecops содержит операции над векторами и матрицами, на которых
// построена рекуррентная ячейка. Каждая функция возвращает новый вектор,
// входные данные не изменяются.
package vecops

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch возвращается, когда размеры операндов не согласованы.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// ------------------------- LINEAR ALGEBRA -------------------------

// Multiply вычисляет произведение матрицы на вектор: out[i] = Σ_j m[i][j]*v[j].
func Multiply(m mat.Matrix, v mat.Vector) (*mat.VecDense, error) {
	r, c := m.Dims()
	if c != v.Len() {
		return nil, errors.Wrapf(ErrDimensionMismatch, "matrix %dx%d times vector of length %d", r, c, v.Len())
	}
	out := mat.NewVecDense(r, nil)
	out.MulVec(m, v)
	return out, nil
}

// Clone возвращает независимую копию вектора.
func Clone(v mat.Vector) *mat.VecDense {
	return mat.VecDenseCopyOf(v)
}

// ------------------------- NORMALISATION -------------------------

// Softmax превращает вектор в распределение вероятностей.
// Перед экспонентой вычитается максимум, чтобы exp не переполнялся.
func Softmax(v mat.Vector) *mat.VecDense {
	data := raw(v)
	max := floats.Max(data)
	for i := range data {
		data[i] = math.Exp(data[i] - max)
	}
	floats.Scale(1/floats.Sum(data), data)
	return mat.NewVecDense(len(data), data)
}

// Normalise делит вектор на сумму его элементов.
// При нулевой сумме возвращается нулевой вектор.
func Normalise(v mat.Vector) *mat.VecDense {
	data := raw(v)
	sum := floats.Sum(data)
	if sum == 0 {
		return mat.NewVecDense(len(data), nil)
	}
	floats.Scale(1/sum, data)
	return mat.NewVecDense(len(data), data)
}

// ------------------------- ENCODING -------------------------

// Argmax возвращает индекс наибольшего элемента. При равенстве выбирается
// первый индекс, поэтому нулевой или полностью отрицательный вектор тоже
// даёт определённый результат. Для пустого вектора возвращается -1.
func Argmax(v mat.Vector) int {
	if v.Len() == 0 {
		return -1
	}
	return floats.MaxIdx(raw(v))
}

// OneHot строит вектор длины n с единицей в позиции idx.
// Если idx вне диапазона, вектор остаётся нулевым.
func OneHot(n, idx int) *mat.VecDense {
	out := mat.NewVecDense(n, nil)
	if idx >= 0 && idx < n {
		out.SetVec(idx, 1)
	}
	return out
}

// raw копирует элементы вектора в новый срез.
func raw(v mat.Vector) []float64 {
	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}
