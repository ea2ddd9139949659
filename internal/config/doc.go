// Package config provides configuration structures and utilities for anteater.
// It defines crawl scope, politeness, content quality thresholds and report
// preferences, and loads overrides from a YAML .anteater file.
package config
