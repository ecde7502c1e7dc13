// Package config loads the client configuration from YAML files, .env files
// and environment variables.
//
// Files are resolved by name: ./<name>.yml, ./config/<name>.yml,
// ./config/config.yml and ./config.yml are tried in order, then .env.<name>
// and .env. Environment variables override file values by path, so
// ENDPOINT_HOST sets endpoint.host and HTTP_TIMEOUT sets http.timeout.
//
// # Usage
//
//	var cfg config.Config
//	if err := config.Load("orders-app", &cfg); err != nil {
//		return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//		return err
//	}
package config
