// Package config описывает параметры запуска тренера и их проверку.
package config

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/go-portfolio/go-char-rnn/internal/dataset"
	"github.com/go-portfolio/go-char-rnn/internal/textutils"
)

// ErrInvalidDepth возвращается для нечислового или неположительного числа эпох.
var ErrInvalidDepth = errors.New("invalid training depth")

// Config содержит параметры обучения и интерактивного режима
type Config struct {
	Depth        int     `json:"depth"`          // Число эпох; 0 — спросить в консоли
	Layers       int     `json:"layers"`         // Число ячеек в стеке
	Seed         int64   `json:"seed"`           // Seed для инициализации весов; 0 — по времени
	TrainingText string  `json:"training_text"`  // Обучающая последовательность
	Vocabulary   string  `json:"vocabulary"`     // Символы словаря по порядку индексов
	LearnRate    float64 `json:"learn_rate"`     // Шаг обновления весов
	ResetOnQuery bool    `json:"reset_on_query"` // Обнулять скрытое состояние перед каждым запросом
	LogLevel     string  `json:"log_level"`      // Уровень логирования logrus
}

// Default возвращает конфигурацию эталонного примера: две ячейки, "hello", шаг 0.5.
func Default() *Config {
	return &Config{
		Layers:       2,
		TrainingText: dataset.DefaultText,
		Vocabulary:   textutils.DefaultSymbols,
		LearnRate:    0.5,
		LogLevel:     "info",
	}
}

// Load читает конфигурацию в формате JSON поверх значений по умолчанию.
// Неизвестные поля считаются ошибкой.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(c); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	return c, nil
}

// Validate проверяет параметры и подставляет seed, если он не задан.
func (c *Config) Validate() error {
	if c.Depth < 0 {
		return errors.Wrapf(ErrInvalidDepth, "%d", c.Depth)
	}
	if c.Layers < 1 {
		return errors.Errorf("number of layers must be positive, got %d", c.Layers)
	}
	if !(c.LearnRate > 0) {
		return errors.Errorf("learn rate must be positive, got %v", c.LearnRate)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	vocab, err := textutils.NewVocabulary(c.Vocabulary)
	if err != nil {
		return err
	}
	if _, err := dataset.PrepareData(c.TrainingText, vocab); err != nil {
		return err
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return nil
}

// ParseDepth разбирает число эпох, введённое пользователем.
func ParseDepth(s string) (int, error) {
	depth, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidDepth, "%q is not a number", s)
	}
	if depth <= 0 {
		return 0, errors.Wrapf(ErrInvalidDepth, "%d is not positive", depth)
	}
	return depth, nil
}
