// Package console ведёт диалог с пользователем: спрашивает число эпох,
// затем принимает символы-затравки до ввода "quit".
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/go-portfolio/go-char-rnn/internal/config"
	"github.com/go-portfolio/go-char-rnn/internal/rnn"
	"github.com/go-portfolio/go-char-rnn/internal/textutils"
)

// QuitToken завершает интерактивный цикл (точное совпадение, с учётом регистра).
const QuitToken = "quit"

// Session читает слова, разделённые пробелами, из in и пишет ответы в out.
type Session struct {
	scanner *bufio.Scanner
	out     io.Writer
	logger  *logrus.Logger
}

// NewSession создаёт сессию поверх произвольного ввода и вывода.
func NewSession(in io.Reader, out io.Writer, logger *logrus.Logger) *Session {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)
	if logger == nil {
		logger = logrus.New()
	}
	return &Session{scanner: scanner, out: out, logger: logger}
}

// ReadDepth спрашивает число эпох, пока не будет введено положительное целое.
// Конец ввода до корректного значения возвращает ошибку.
func (s *Session) ReadDepth() (int, error) {
	for {
		fmt.Fprintln(s.out, "Enter the depth of training:")
		token, err := s.next()
		if err != nil {
			return 0, errors.Wrap(err, "reading training depth")
		}
		depth, err := config.ParseDepth(token)
		if err != nil {
			s.logger.WithError(err).Warn("Rejected training depth")
			fmt.Fprintf(s.out, "Invalid depth: %v\n", err)
			continue
		}
		return depth, nil
	}
}

// Run принимает затравки и печатает предсказанный символ для каждой.
// Используется только первый символ слова. Если resetOnQuery выставлен,
// скрытое состояние обнуляется перед каждым запросом.
func (s *Session) Run(net *rnn.Network, resetOnQuery bool) error {
	fmt.Fprintf(s.out, "Enter %s or type '%s' to quit:\n", symbolList(net.Vocabulary()), QuitToken)
	for {
		token, err := s.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if token == QuitToken {
			return nil
		}

		seed, _ := utf8.DecodeRuneInString(token)
		// Отклонённая затравка не должна стирать состояние
		if resetOnQuery && net.Vocabulary().Index(seed) >= 0 {
			net.ResetHidden()
		}
		predicted, err := net.Predict(seed)
		if errors.Is(err, textutils.ErrUnrecognizedSymbol) {
			s.logger.WithError(err).Warn("Rejected seed")
			fmt.Fprintf(s.out, "Unrecognized symbol %q, enter %s\n", seed, symbolList(net.Vocabulary()))
			continue
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(s.out, "Output:")
		fmt.Fprintln(s.out, string(predicted))
	}
}

// next возвращает следующее слово ввода или io.EOF.
func (s *Session) next() (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

// symbolList форматирует словарь как 'h', 'e', 'l', 'o'.
func symbolList(vocab *textutils.Vocabulary) string {
	quoted := make([]string, 0, vocab.Size())
	for _, r := range vocab.Symbols() {
		quoted = append(quoted, "'"+string(r)+"'")
	}
	return strings.Join(quoted, ", ")
}
