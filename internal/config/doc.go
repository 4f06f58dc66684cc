// Package config provides configuration management for swapd.
//
// Configuration is loaded from environment variables using the env package.
// All configuration values have sensible defaults for development use; set
// STORAGE_BACKEND, CACHE_BACKEND and QUEUE_BACKEND to "memory" to run
// without Postgres or Redis.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
