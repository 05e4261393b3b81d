package rnn

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/go-portfolio/go-char-rnn/internal/vecops"
)

// probabilityEpsilon удерживает вероятности внутри (0, 1) перед логарифмом.
const probabilityEpsilon = 1e-12

// Loss — значение функции потерь для одного шага.
type Loss struct {
	Value float64
	// Degenerate выставляется, если хотя бы одна вероятность была
	// прижата к границе: значение конечно, но неточно.
	Degenerate bool
}

// CrossEntropy считает поэлементную бинарную кросс-энтропию по всему словарю:
// -Σ [t·ln(p) + (1-t)·ln(1-p)], где p = softmax(output).
//
// Обратный проход использует градиент категориальной кросс-энтропии (p - t),
// а не производную этой формулы; функция нужна для отчётов и проверок.
func CrossEntropy(target, output mat.Vector) (Loss, error) {
	if target.Len() != output.Len() {
		return Loss{}, errors.Wrapf(vecops.ErrDimensionMismatch, "target of length %d, output of length %d", target.Len(), output.Len())
	}

	p := vecops.Softmax(output)
	var loss Loss
	for i := 0; i < p.Len(); i++ {
		pi := p.AtVec(i)
		if pi < probabilityEpsilon {
			pi = probabilityEpsilon
			loss.Degenerate = true
		} else if pi > 1-probabilityEpsilon {
			pi = 1 - probabilityEpsilon
			loss.Degenerate = true
		}
		t := target.AtVec(i)
		loss.Value -= t*math.Log(pi) + (1-t)*math.Log(1-pi)
	}
	return loss, nil
}
