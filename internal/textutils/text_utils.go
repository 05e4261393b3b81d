package textutils

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/go-portfolio/go-char-rnn/internal/vecops"
)

// ErrUnrecognizedSymbol возвращается для символа вне словаря.
var ErrUnrecognizedSymbol = errors.New("unrecognized symbol")

// DefaultSymbols — словарь эталонного примера "hello".
const DefaultSymbols = "helo"

// Vocabulary — упорядоченный набор символов; индекс символа равен его позиции.
type Vocabulary struct {
	symbols []rune
	index   map[rune]int
}

// Функция для построения словаря из строки символов
func NewVocabulary(symbols string) (*Vocabulary, error) {
	v := &Vocabulary{index: make(map[rune]int)}
	for _, r := range symbols {
		if _, exists := v.index[r]; exists {
			return nil, errors.Errorf("duplicate symbol %q in vocabulary %q", r, symbols)
		}
		v.index[r] = len(v.symbols)
		v.symbols = append(v.symbols, r)
	}
	if len(v.symbols) == 0 {
		return nil, errors.New("empty vocabulary")
	}
	return v, nil
}

// Size возвращает число символов в словаре.
func (v *Vocabulary) Size() int {
	return len(v.symbols)
}

// Symbols возвращает символы словаря в порядке индексов.
func (v *Vocabulary) Symbols() []rune {
	out := make([]rune, len(v.symbols))
	copy(out, v.symbols)
	return out
}

// Index возвращает индекс символа или -1, если символа нет в словаре.
func (v *Vocabulary) Index(r rune) int {
	if idx, exists := v.index[r]; exists {
		return idx
	}
	return -1
}

// Encode возвращает one-hot вектор символа. Для символа вне словаря
// возвращается нулевой вектор вместе с ErrUnrecognizedSymbol.
func (v *Vocabulary) Encode(r rune) (*mat.VecDense, error) {
	idx := v.Index(r)
	out := vecops.OneHot(len(v.symbols), idx)
	if idx < 0 {
		return out, errors.Wrapf(ErrUnrecognizedSymbol, "%q", r)
	}
	return out, nil
}

// Decode возвращает символ по индексу.
func (v *Vocabulary) Decode(idx int) (rune, error) {
	if idx < 0 || idx >= len(v.symbols) {
		return 0, errors.Errorf("index %d outside vocabulary of size %d", idx, len(v.symbols))
	}
	return v.symbols[idx], nil
}

// Функция для преобразования текста в индексы символов
func TextToIndices(text string, vocab *Vocabulary) []int {
	var indices []int
	for _, r := range text {
		indices = append(indices, vocab.Index(r)) // -1, если символа нет в словаре
	}
	return indices
}
