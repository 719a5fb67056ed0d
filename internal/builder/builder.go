package builder

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"skein/internal/discover"
	"skein/internal/logging"
	"skein/internal/npy"
	"skein/internal/phoneme"
	"skein/internal/sanitize"
	"skein/internal/textdata"
)

// Builder assembles records from groups.
type Builder struct {
	phonemizer phoneme.Phonemizer
	logger     *slog.Logger

	// loadFeatures is swappable for tests.
	loadFeatures func(path string) ([][]int64, error)
}

// New creates a builder. A nil logger disables logging.
func New(phonemizer phoneme.Phonemizer, logger *slog.Logger) *Builder {
	return &Builder{
		phonemizer:   phonemizer,
		logger:       logging.NewComponentLogger(logger, "builder"),
		loadFeatures: npy.Load,
	}
}

// WithFeatureLoader sets a custom feature-file loader (for testing).
func (b *Builder) WithFeatureLoader(load func(path string) ([][]int64, error)) {
	b.loadFeatures = load
}

// Build produces the record for one group. Member failures are logged and
// skipped; Build itself never fails. Sentence order follows the group's
// member order.
func (b *Builder) Build(ctx context.Context, group discover.Group) *textdata.Record {
	record := &textdata.Record{
		Source:    group.Source,
		Name:      group.Name,
		Languages: group.Languages,
	}

	for _, member := range group.Members {
		sentence, ok := b.buildSentence(ctx, group, member)
		if ok {
			record.Sentences = append(record.Sentences, sentence)
		}
	}
	return record
}

func (b *Builder) buildSentence(ctx context.Context, group discover.Group, member discover.Member) (textdata.Sentence, bool) {
	var sentence textdata.Sentence

	featurePath := swapExtension(member.Path, discover.FeatureExt)
	if _, err := os.Stat(featurePath); err != nil {
		b.logger.Warn("feature file missing, skipping member",
			logging.String(logging.FieldGroup, group.Name),
			logging.String(logging.FieldFile, featurePath),
		)
		return sentence, false
	}

	text, ok := b.resolveText(group, member)
	if !ok {
		return sentence, false
	}
	text = sanitize.Clean(text)

	phones, err := b.phonemizer.Phonemize(ctx, text, member.Languages)
	if err != nil {
		b.logger.Error("phonemization failed, skipping member",
			logging.String(logging.FieldGroup, group.Name),
			logging.String(logging.FieldFile, member.Path),
			logging.Error(err),
		)
		return sentence, false
	}

	rows, err := b.loadFeatures(featurePath)
	if err != nil {
		b.logger.Error("feature load failed, skipping member",
			logging.String(logging.FieldGroup, group.Name),
			logging.String(logging.FieldFile, featurePath),
			logging.Error(err),
		)
		return sentence, false
	}

	sentence.Text = text
	sentence.Phones = phones
	sentence.Semantics = make([]textdata.Semantics, len(rows))
	for i, row := range rows {
		sentence.Semantics[i] = textdata.Semantics{Values: row}
	}
	return sentence, true
}

func (b *Builder) resolveText(group discover.Group, member discover.Member) (string, bool) {
	if member.HasText {
		return member.Text, true
	}

	textPath := swapExtension(member.Path, group.Extension)
	data, err := os.ReadFile(textPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("transcript missing, skipping member",
				logging.String(logging.FieldGroup, group.Name),
				logging.String(logging.FieldFile, textPath),
			)
		} else {
			b.logger.Error("transcript unreadable, skipping member",
				logging.String(logging.FieldGroup, group.Name),
				logging.String(logging.FieldFile, textPath),
				logging.Error(err),
			)
		}
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func swapExtension(path, extension string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + extension
}
