package config

// SentryConfig configures error reporting for unattended runs. An empty DSN
// disables reporting entirely.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}
