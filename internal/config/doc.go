// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation,
// so database credentials can stay in the environment (or a .env file loaded by the
// caller) while the rest of the layout lives in YAML.
package config
