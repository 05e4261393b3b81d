package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/go-portfolio/go-char-rnn/internal/config"
	"github.com/go-portfolio/go-char-rnn/internal/console"
	"github.com/go-portfolio/go-char-rnn/internal/dataset"
	"github.com/go-portfolio/go-char-rnn/internal/rnn"
	"github.com/go-portfolio/go-char-rnn/internal/textutils"
)

func main() {
	cfg := config.Default()
	var configPath string
	flags := newFlagSet(cfg, &configPath)
	flags.Parse(os.Args[1:])

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	// Флаги командной строки переопределяют значения из файла
	if configPath != "" {
		loaded, err := loadConfig(configPath)
		if err != nil {
			logger.WithError(err).Error("Stopped")
			os.Exit(1)
		}
		cfg = loaded
		newFlagSet(cfg, &configPath).Parse(os.Args[1:])
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Stopped")
		os.Exit(1)
	}
}

func newFlagSet(cfg *config.Config, configPath *string) *flag.FlagSet {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flags.StringVar(configPath, "config", *configPath, "JSON config file; flags override its values")
	flags.IntVar(&cfg.Depth, "depth", cfg.Depth, "training epochs (0 asks on stdin)")
	flags.IntVar(&cfg.Layers, "layers", cfg.Layers, "number of stacked cells")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "weight initialisation seed (0 uses the clock)")
	flags.StringVar(&cfg.TrainingText, "text", cfg.TrainingText, "training sequence")
	flags.StringVar(&cfg.Vocabulary, "vocab", cfg.Vocabulary, "vocabulary symbols in index order")
	flags.Float64Var(&cfg.LearnRate, "learn-rate", cfg.LearnRate, "weight update step")
	flags.BoolVar(&cfg.ResetOnQuery, "reset-on-query", cfg.ResetOnQuery, "zero the hidden state before every query")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "logrus level")
	return flags
}

func loadConfig(path string) (*config.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return config.Load(f)
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel) // уже проверено в Validate
	logger.SetLevel(level)

	// Строим словарь и обучающие переходы
	vocab, err := textutils.NewVocabulary(cfg.Vocabulary)
	if err != nil {
		return err
	}
	samples, err := dataset.PrepareData(cfg.TrainingText, vocab)
	if err != nil {
		return err
	}

	// Инициализация стека ячеек
	logger.WithFields(logrus.Fields{
		"seed":   cfg.Seed,
		"layers": cfg.Layers,
		"vocab":  cfg.Vocabulary,
	}).Debug("Initialising network")
	net, err := rnn.NewNetwork(vocab, cfg.Layers, rand.New(rand.NewSource(cfg.Seed)), logger)
	if err != nil {
		return err
	}
	net.SetLearnRate(cfg.LearnRate)

	session := console.NewSession(os.Stdin, os.Stdout, logger)
	depth := cfg.Depth
	if depth == 0 {
		if depth, err = session.ReadDepth(); err != nil {
			return err
		}
	}

	// Обучение модели
	if _, err := net.Train(samples, depth); err != nil {
		return err
	}
	fmt.Println("Training complete.")

	// Прогнозирование следующего символа
	return session.Run(net, cfg.ResetOnQuery)
}
