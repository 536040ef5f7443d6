package config

import (
	"path"

	"github.com/avencic/storycircle/internal/modules/env"

	"go.uber.org/zap"
)

const (
	PortEnv        = "PORT"
	DatabaseUrlEnv = "DATABASE_URL"
	RootPathEnv    = "ROOT_PATH"

	GeminiAPIKeyEnv = "GEMINI_API_KEY"
	GeminiModelEnv  = "GEMINI_MODEL"
)

const defaultGeminiModel = "gemini-1.5-flash"

type AIConfiguration struct {
	APIKey string
	Model  string
}

// Enabled reports whether choice generation is configured. The API key
// is optional; without it the AI endpoints respond as disabled.
func (c AIConfiguration) Enabled() bool {
	return c.APIKey != ""
}

type Config struct {
	Logger *zap.Logger

	Port           int
	DatabaseURL    string
	MigrationsPath string

	AI AIConfiguration
}

func Load() (Config, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return Config{}, err
	}
	zap.ReplaceGlobals(logger)

	port := env.MustGetInt(PortEnv)
	dbURL := env.MustGetString(DatabaseUrlEnv)

	rootPath := env.MustGetString(RootPathEnv)
	migrationsPath := path.Join(rootPath, "db", "migrations")

	ai := AIConfiguration{
		APIKey: env.GetString(GeminiAPIKeyEnv),
		Model:  env.GetString(GeminiModelEnv),
	}
	if ai.Model == "" {
		ai.Model = defaultGeminiModel
	}

	return Config{
		Logger:         logger,
		Port:           port,
		DatabaseURL:    dbURL,
		MigrationsPath: migrationsPath,
		AI:             ai,
	}, nil
}
