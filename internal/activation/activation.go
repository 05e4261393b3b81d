package activation

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Функция активации tanh
// tanh(x) возвращает гиперболический тангенс значения x.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// Производная tanh в точке x: 1 - tanh(x)^2.
// Ячейка хранит уже активированное состояние и всё равно пропускает его через tanh
// при обратном проходе, поэтому здесь берётся аргумент, а не значение функции.
func TanhPrime(x float64) float64 {
	t := math.Tanh(x)
	return 1 - t*t
}

// TanhVec применяет tanh поэлементно и возвращает новый вектор.
func TanhVec(v mat.Vector) *mat.VecDense {
	out := mat.NewVecDense(v.Len(), nil)
	for i := 0; i < v.Len(); i++ {
		out.SetVec(i, Tanh(v.AtVec(i)))
	}
	return out
}
