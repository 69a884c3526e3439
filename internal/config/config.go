package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env              string         `yaml:"env" env:"ENV" env-default:"local"`
	DatabaseUrl      string         `yaml:"database_url" env:"DATABASE_URL" env-required:"true"`
	DatabaseMaxConns int32          `yaml:"database_max_conns" env:"DATABASE_MAX_CONNS" env-default:"4"`
	Server           ServerConfig   `yaml:"rest"`
	JWT              JWTSecret      `yaml:"jwt"`
	Redis            RedisConfig    `yaml:"redis"`
	Autosave         AutosaveConfig `yaml:"autosave"`
}

type ServerConfig struct {
	Port           string   `yaml:"port" env:"REST_PORT" env-default:"8080"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"REST_ALLOWED_ORIGINS" env-default:"http://localhost:3000"`
}

type JWTSecret struct {
	Secret string `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
}

// RedisConfig configures the draft journal. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DraftTTL time.Duration `yaml:"draft_ttl" env:"REDIS_DRAFT_TTL" env-default:"24h"`
}

// AutosaveConfig sets how often dirty sessions are saved. Zero disables autosave.
type AutosaveConfig struct {
	Interval time.Duration `yaml:"interval" env:"AUTOSAVE_INTERVAL" env-default:"1m"`
}

func MustLoad() *Config {
	path := fetchConfigPath()

	if path == "" {
		panic("Config file not found in path")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("Config file not found in path: " + path)
	}

	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the YAML file at path; environment variables override it.
func Load(path string) (*Config, error) {
	var config Config
	log.Printf("Loading config from %s", path)
	if err := cleanenv.ReadConfig(path, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "config path")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}
	if res == "" {
		res = "./config/local.yaml"
	}

	return res
}
