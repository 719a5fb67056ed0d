package config

// Default returns the repository default configuration.
func Default() Config {
	return Config{
		Output: Output{
			Path:    "data/quantized-dataset.protos",
			Workers: 16,
		},
		Phonemizer: Phonemizer{
			Command:        "g2p",
			TimeoutSeconds: 120,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
