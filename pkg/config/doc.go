// Package config loads the service configuration from environment variables
// using cleanenv struct tags. Every setting has a development-friendly
// default; production deployments override the secrets and endpoints.
package config
