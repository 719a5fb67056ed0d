package phoneme

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Phonemizer converts sanitized text into an ordered phoneme-symbol
// sequence. The language order defines precedence for mixed-language text.
type Phonemizer interface {
	Phonemize(ctx context.Context, text string, languages []string) ([]string, error)
}

// Config describes the external converter invocation.
type Config struct {
	// Command is the converter executable.
	Command string
	// Args are extra arguments placed before the language flag.
	Args []string
	// TimeoutSeconds bounds a single conversion; zero means no limit.
	TimeoutSeconds int
}

// Service runs the converter as a subprocess.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args []string, stdin string) (string, error)
}

// NewService creates a phonemizer service with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args []string, stdin string) (string, error)) {
	s.commandRunner = runner
}

// Phonemize converts text, honoring the configured timeout. The converter
// receives the text on stdin and emits one whitespace-separated symbol
// stream on stdout.
func (s *Service) Phonemize(ctx context.Context, text string, languages []string) ([]string, error) {
	if strings.TrimSpace(s.cfg.Command) == "" {
		return nil, errors.New("phonemizer command not configured")
	}

	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	args := append([]string{}, s.cfg.Args...)
	if len(languages) > 0 {
		args = append(args, "--languages", strings.Join(languages, ","))
	}

	output, err := s.run(ctx, s.cfg.Command, args, text)
	if err != nil {
		return nil, err
	}

	phones := strings.Fields(output)
	if len(phones) == 0 {
		return nil, fmt.Errorf("%s: produced no phonemes", s.cfg.Command)
	}
	return phones, nil
}

func (s *Service) run(ctx context.Context, name string, args []string, stdin string) (string, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args, stdin)
	}

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), numericThreadEnv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// numericThreadEnv pins the BLAS/OpenMP thread pools of any numeric runtime
// the converter links. The worker pool already provides all the parallelism;
// letting each subprocess spin up its own pool oversubscribes the host.
var numericThreadEnv = []string{
	"OMP_NUM_THREADS=1",
	"MKL_NUM_THREADS=1",
	"OPENBLAS_NUM_THREADS=1",
}

var pinOnce sync.Once

// PinNumericThreads exports the thread-pinning variables into this process's
// environment so every child inherits them. Called once at startup, before
// any workers run. Values already set by the operator win.
func PinNumericThreads() {
	pinOnce.Do(func() {
		for _, entry := range numericThreadEnv {
			key, value, _ := strings.Cut(entry, "=")
			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}
