package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Audio     AudioConfig     `yaml:"audio"`
	Speech    SpeechConfig    `yaml:"speech"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	TTS       TTSConfig       `yaml:"tts"`
	Devices   DevicesConfig   `yaml:"devices"`
	Assistant AssistantConfig `yaml:"assistant"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
}

type AudioConfig struct {
	Source     string `yaml:"source"` // microphone | file
	FileDir    string `yaml:"file_dir"`
	SampleRate int    `yaml:"sample_rate"`
}

// SpeechConfig covers the transcription chain: the online recognizer,
// the self-hosted recognizer, and the local model tiers.
type SpeechConfig struct {
	Language        string `yaml:"language"` // BCP-47 hint for the online recognizer
	GoogleAPIKey    string `yaml:"google_api_key"`
	ASRHostURL      string `yaml:"asr_host_url"`
	WhisperModel    string `yaml:"whisper_model"`
	WhisperFallback string `yaml:"whisper_fallback"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type FirebaseConfig struct {
	DatabaseURL string `yaml:"database_url"`
	AuthSecret  string `yaml:"auth_secret"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
	Enabled  bool   `yaml:"enabled"`
}

type TTSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	PiperEndpoint string `yaml:"piper_endpoint"`
	PiperVoice    string `yaml:"piper_voice"`
	EspeakPath    string `yaml:"espeak_path"`
}

// DevicesConfig makes the canonical device table configurable instead
// of hard-coding the vocabulary drift between firmware variants.
type DevicesConfig struct {
	Canonical []string          `yaml:"canonical"`
	Aliases   map[string]string `yaml:"aliases"`
	Timed     []string          `yaml:"timed"`
}

type AssistantConfig struct {
	Passphrase string `yaml:"passphrase"`
	Speak      bool   `yaml:"speak"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// Default returns a usable configuration when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5001"
	}
	if c.Audio.Source == "" {
		c.Audio.Source = "microphone"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Speech.Language == "" {
		c.Speech.Language = "en-US"
	}
	if c.Speech.WhisperModel == "" {
		c.Speech.WhisperModel = "models/ggml-base.bin"
	}
	if c.Speech.WhisperFallback == "" {
		c.Speech.WhisperFallback = "models/ggml-tiny.bin"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-1.5-flash"
	}
	if c.TTS.PiperEndpoint == "" {
		c.TTS.PiperEndpoint = "localhost:10200"
	}
	if c.TTS.EspeakPath == "" {
		c.TTS.EspeakPath = "espeak-ng"
	}
	if c.Assistant.Passphrase == "" {
		c.Assistant.Passphrase = "open"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
