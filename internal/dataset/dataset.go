package dataset

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/go-portfolio/go-char-rnn/internal/textutils"
)

// DefaultText — обучающая последовательность эталонного примера.
const DefaultText = "hello"

// Sample — один переход между соседними символами обучающей строки.
type Sample struct {
	Input  *mat.VecDense // one-hot текущего символа
	Target *mat.VecDense // one-hot следующего символа
}

// Подготовка данных для обучения (преобразование пар соседних символов в one-hot векторы)
func PrepareData(text string, vocab *textutils.Vocabulary) ([]Sample, error) {
	runes := []rune(text)
	if len(runes) < 2 {
		return nil, errors.Errorf("training text %q needs at least two symbols", text)
	}

	// Кодируем каждый символ один раз
	encoded := make([]*mat.VecDense, len(runes))
	for i, r := range runes {
		vec, err := vocab.Encode(r)
		if err != nil {
			return nil, errors.Wrapf(err, "training text position %d", i)
		}
		encoded[i] = vec
	}

	// Используются только первые len-1 переходов: (c_t, c_{t+1})
	samples := make([]Sample, 0, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		samples = append(samples, Sample{
			Input:  mat.VecDenseCopyOf(encoded[i]),
			Target: mat.VecDenseCopyOf(encoded[i+1]),
		})
	}
	return samples, nil
}
