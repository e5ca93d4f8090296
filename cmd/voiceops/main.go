package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"voiceops/config"
	"voiceops/internal/api"
	"voiceops/internal/application"
	"voiceops/internal/domain"
	"voiceops/internal/infra/asrhost"
	"voiceops/internal/infra/audio"
	"voiceops/internal/infra/firebase"
	"voiceops/internal/infra/gemini"
	"voiceops/internal/infra/googlespeech"
	"voiceops/internal/infra/speech"
	"voiceops/internal/infra/telegram"
	"voiceops/internal/infra/whispercpp"
)

func main() {
	configPath := pflag.String("config", "config.yaml", "path to config file")
	mode := pflag.String("mode", "server", "run mode: server, cli or continuous")
	pflag.Parse()

	// A missing .env is fine, the config file expands whatever is set.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	vocab := buildVocabulary(cfg.Devices)

	capturer := createCapturer(cfg.Audio, logger)
	defer capturer.Close()

	whisperEngine := whispercpp.NewEngine(cfg.Speech.WhisperModel, cfg.Speech.WhisperFallback, logger)
	defer whisperEngine.Close()

	chain := application.NewChain(logger,
		googlespeech.NewClient(cfg.Speech.GoogleAPIKey),
		asrhost.NewClient(cfg.Speech.ASRHostURL),
		whisperEngine,
	)

	sink := firebase.NewClient(cfg.Firebase.DatabaseURL, cfg.Firebase.AuthSecret, vocab)
	mapper := application.NewMapper(gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model), vocab, logger)
	executor := application.NewExecutor(sink, vocab, logger)

	var notifier application.Notifier
	if cfg.Telegram.Enabled {
		notifier = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	} else {
		notifier = application.NoopNotifier{}
	}

	var speaker application.Speaker
	if cfg.TTS.Enabled {
		piper := speech.NewPiperClient(cfg.TTS.PiperEndpoint, cfg.TTS.PiperVoice)
		speaker = speech.NewSpeaker(piper, cfg.TTS.EspeakPath, logger)
	} else {
		speaker = application.NoopSpeaker{}
	}

	pipeline := application.NewPipeline(capturer, chain, mapper, executor, speaker, notifier,
		application.PipelineConfig{
			Passphrase: cfg.Assistant.Passphrase,
			Language:   cfg.Speech.Language,
			Speak:      cfg.TTS.Enabled || cfg.Assistant.Speak,
		}, logger)

	switch *mode {
	case "cli":
		runCLI(ctx, pipeline, logger)
	case "continuous":
		if err := pipeline.Run(ctx, 5*time.Second); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("continuous mode error", "error", err)
			os.Exit(1)
		}
	case "server":
		runServer(ctx, cfg, pipeline, executor, vocab, logger)
	default:
		logger.Error("unknown mode", "mode", *mode)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, cfg *config.Config, pipeline *application.Pipeline, executor *application.Executor, vocab *domain.Vocabulary, logger *slog.Logger) {
	server := api.NewServer(cfg.Server.Addr, cfg.Server.AuthToken, pipeline, executor, vocab, logger)
	if err := server.Start(ctx); err != nil {
		logger.Error("starting server", "error", err)
		os.Exit(1)
	}

	logger.Info("voice assistant ready", "addr", cfg.Server.Addr, "devices", vocab.Devices())

	<-ctx.Done()
	if err := server.Stop(); err != nil {
		logger.Error("stopping server", "error", err)
	}
}

func runCLI(ctx context.Context, pipeline *application.Pipeline, logger *slog.Logger) {
	fmt.Println("Type a command, 'listen' to record 5 seconds, or 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		select {
		case <-ctx.Done():
			return
		default:
		}

		var result domain.Result
		switch line {
		case "":
			continue
		case "quit", "exit":
			return
		case "listen":
			result = pipeline.ProcessVoice(ctx, 5*time.Second, false)
		default:
			result = pipeline.ProcessText(ctx, line, false)
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			logger.Error("encoding result", "error", err)
			continue
		}
		fmt.Println(string(out))
	}
}

func createCapturer(cfg config.AudioConfig, logger *slog.Logger) application.Capturer {
	switch cfg.Source {
	case "file":
		return audio.NewFileSource(cfg.FileDir, logger)
	case "microphone":
		return audio.NewRecorder(cfg.SampleRate, logger)
	default:
		logger.Warn("unknown audio source, using microphone", "source", cfg.Source)
		return audio.NewRecorder(cfg.SampleRate, logger)
	}
}

func buildVocabulary(cfg config.DevicesConfig) *domain.Vocabulary {
	if len(cfg.Canonical) == 0 {
		return domain.DefaultVocabulary()
	}
	return domain.NewVocabulary(cfg.Canonical, cfg.Aliases, cfg.Timed)
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
