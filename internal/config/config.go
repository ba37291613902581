package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all process configuration, loaded from the environment.
// Secrets (app secret, access tokens) are never logged.
type Config struct {
	DatabaseURL string `env:"DB_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// WhatsApp Cloud API webhook credentials.
	WebhookVerifyToken string `env:"WA_VERIFY_TOKEN"`
	WebhookAppSecret   string `env:"WA_APP_SECRET"`
	GraphBaseURL       string `env:"WA_GRAPH_BASE_URL" envDefault:"https://graph.facebook.com/v21.0"`

	// AI classification. Empty provider disables the classify worker.
	AIProvider  string `env:"AI_PROVIDER"`
	OpenAIKey   string `env:"OPENAI_API_KEY"`
	OpenAIModel string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	// Downstream automation bus. Empty URL disables forwarding.
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"inbox.events"`

	WorkerConcurrency int `env:"WORKER_CONCURRENCY" envDefault:"10"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return cfg, nil
}
