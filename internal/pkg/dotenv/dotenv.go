package dotenv

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Load подхватывает .env и даёт флагу -port приоритет над PORT из окружения.
func Load() error {
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	var port string
	flag.StringVar(&port, "port", "", "HTTP server port (overrides PORT)")
	flag.Parse()

	if port == "" {
		return nil
	}
	if err := os.Setenv("PORT", port); err != nil {
		return fmt.Errorf("override PORT: %w", err)
	}
	return nil
}
