package main

import (
	"io"
	"os"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/xenking/surplus-storefront/internal/domain/pricing"
)

// loadRules reads pricing overrides. An empty path yields the default rules.
func loadRules(path string) (pricing.Rules, error) {
	if path == "" {
		return pricing.DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pricing.Rules{}, errors.Wrap(err, "read rules")
	}
	var cfg pricing.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return pricing.Rules{}, errors.Wrap(err, "parse rules")
	}
	return cfg.Rules()
}

// readInput reads a file argument, or stdin for "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
