// Package config has a configuration structure
package config

// Config contains configuration data
type Config struct {
	Storage string `env:"STORAGE" envDefault:"postgres"` // postgres or memory

	UsernamePostgres string `env:"POSTGRES_USER" envDefault:"postgres"`
	PasswordPostgres string `env:"POSTGRES_PASSWORD" envDefault:"testpassword"`
	HostPostgres     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PortPostgres     string `env:"POSTGRES_PORT" envDefault:"5432"`
	DBNamePostgres   string `env:"POSTGRES_DB" envDefault:"postgres"`

	ServerRedisCache string `env:"REDIS_SERVER" envDefault:"server1"`
	HostRedisCache   string `env:"REDIS_HOST" envDefault:"localhost"`
	PortRedisCache   string `env:"REDIS_PORT" envDefault:"6379"`
	QuoteTTLSeconds  int    `env:"QUOTE_TTL_SECONDS" envDefault:"5"`

	BrokersKafka []string `env:"KAFKA_BROKERS" envSeparator:","`
	TopicKafka   string   `env:"KAFKA_TOPIC" envDefault:"trades_executed"`

	HostHTTP string `env:"HTTP_HOST" envDefault:""`
	PortHTTP string `env:"HTTP_PORT" envDefault:"8000"`
}
