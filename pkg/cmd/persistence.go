package cmd

import (
	"fmt"
	"strings"

	"github.com/aurelia-hq/strand/pkg/persistence"
	"github.com/aurelia-hq/strand/pkg/persistence/file"
	"github.com/aurelia-hq/strand/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"file", "redis"}

func NewPersistence(databaseURL string) persistence.Persistence {
	provider := parsePersistenceProvider(databaseURL)

	switch provider {
	case "redis":
		p, err := redis.NewPersistence(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to connect to redis: %w", err))
		}

		return p
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
