package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		TCPAddr         string `yaml:"tcp_addr"`
		HTTPPort        string `yaml:"http_port"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Matchmaking struct {
		GameSize      int `yaml:"game_size"`
		QueueCapacity int `yaml:"queue_capacity"`
	} `yaml:"matchmaking"`
	Game struct {
		QuestionsPerMatch   int    `yaml:"questions_per_match"`
		QuestionTime        string `yaml:"question_time"`
		BetweenQuestions    string `yaml:"between_questions"`
		AnswerQueueCapacity int    `yaml:"answer_queue_capacity"`
		HandshakeTimeout    string `yaml:"handshake_timeout"`
	} `yaml:"game"`
	Questions struct {
		// Source is file, postgres or redis.
		Source string `yaml:"source"`
		Path   string `yaml:"path"`
		Key    string `yaml:"key"`
	} `yaml:"questions"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path and applies environment overrides.
// A .env file is honored if present but optional.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	overrideString(&cfg.Server.TCPAddr, "TCP_ADDR")
	overrideString(&cfg.Server.HTTPPort, "HTTP_PORT")
	overrideString(&cfg.Logging.Level, "LOG_LEVEL")
	overrideString(&cfg.Logging.Format, "LOG_FORMAT")
	overrideString(&cfg.Questions.Path, "QUESTIONS_PATH")
	overrideString(&cfg.Questions.Source, "QUESTIONS_SOURCE")
	overrideString(&cfg.Postgres.URL, "POSTGRES_URL")
	overrideString(&cfg.Redis.Addr, "REDIS_ADDR")
	return cfg, nil
}

func overrideString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// Duration parses a duration string or returns the fallback if empty or
// unparseable.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
