package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from process environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseEnvFrom loads configuration from an explicit environment map instead
// of the process environment. Commands use it to keep config parsing testable.
func ParseEnvFrom(target any, environment map[string]string) error {
	if err := env.ParseWithOptions(target, env.Options{Environment: environment}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// MissingVariables lists required variables that were unset or empty.
func MissingVariables(err error) []string {
	if err == nil {
		return nil
	}
	var aggregate env.AggregateError
	if !errors.As(err, &aggregate) {
		return nil
	}
	seen := make(map[string]struct{}, len(aggregate.Errors))
	for _, item := range aggregate.Errors {
		var notSet env.EnvVarIsNotSetError
		if errors.As(item, &notSet) {
			seen[notSet.Key] = struct{}{}
			continue
		}
		var empty env.EmptyEnvVarError
		if errors.As(item, &empty) {
			seen[empty.Key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
