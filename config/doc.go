// Package config loads configuration for the identity core.
//
// Configuration comes from three layers, lowest precedence first: a
// config.yml file found in standard locations, a .env file loaded via
// godotenv, and process environment variables bound automatically with
// nested-key variants (AUTH_JWT_SECRET binds auth.jwt.secret and
// auth.jwt_secret). Sections follow the ApplyDefaults/Validate convention:
// every config struct fills its zero values with defaults and rejects
// invalid combinations before anything is constructed from it.
package config
