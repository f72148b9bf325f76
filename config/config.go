package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"fern-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`

	// SQLite (materialized story store)
	DatabasePath            string        `env:"DB_PATH" env-default:"data/fern.db" validate:"required"`
	DatabaseMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"1"`
	DatabaseMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"1"`
	DatabaseConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`

	// MongoDB (external story source)
	SourceURI            string        `env:"SOURCE_MONGO_URI" env-default:"mongodb://localhost:27017" validate:"required"`
	SourceDatabase       string        `env:"SOURCE_MONGO_DATABASE" env-default:"storyweb"`
	SourceConnectTimeout time.Duration `env:"SOURCE_MONGO_CONNECT_TIMEOUT" env-default:"10s"`

	// Sync pipeline
	SyncBatchSize       int           `env:"SYNC_BATCH_SIZE" env-default:"50"`
	SyncContinueOnError bool          `env:"SYNC_CONTINUE_ON_ERROR" env-default:"true"`
	CacheMaxAge         time.Duration `env:"CACHE_MAX_AGE" env-default:"24h"`

	// Character link scoring
	LinkEventWeight   int `env:"LINK_EVENT_WEIGHT" env-default:"30"`
	LinkPuzzleWeight  int `env:"LINK_PUZZLE_WEIGHT" env-default:"20"`
	LinkElementWeight int `env:"LINK_ELEMENT_WEIGHT" env-default:"10"`
}
