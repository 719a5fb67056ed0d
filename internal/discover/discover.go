package discover

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"skein/internal/config"
)

// FeatureExt is the extension of precomputed quantized token arrays.
const FeatureExt = ".npy"

// ManifestSource labels every record produced from a manifest.
const ManifestSource = "filelist"

const manifestDelimiter = "|"

// Member is one candidate sentence inside a group.
type Member struct {
	// Path is the member's file path; the feature file is found by swapping
	// its extension for FeatureExt.
	Path string
	// Text is the manifest-supplied transcript. Valid only when HasText is
	// true; otherwise the transcript comes from a sidecar file.
	Text    string
	HasText bool
	// Languages is the phonemization precedence for this member.
	Languages []string
}

// Group is a bucket of members sharing a derived key.
type Group struct {
	Name    string
	Members []Member
	// Source labels the dataset the group came from.
	Source string
	// Languages is the group-wide language order recorded on the packed
	// record.
	Languages []string
	// Extension is the sidecar transcript extension; empty in manifest mode.
	Extension string
}

// FromTree walks the dataset root for feature files and groups them by the
// configured ancestor directory levels. File paths are sorted before
// grouping, so repeated runs yield identical groups; group order follows the
// first appearance of each key in sorted file order.
func FromTree(ds config.Dataset) ([]Group, error) {
	var files []string
	err := filepath.WalkDir(ds.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), FeatureExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", ds.Root, err)
	}
	sort.Strings(files)

	byKey := make(map[string]int)
	var groups []Group
	for _, file := range files {
		key, err := groupKey(file, ds.GroupLevels)
		if err != nil {
			// Bad level configuration aborts discovery outright rather than
			// skipping files one by one.
			return nil, err
		}

		idx, ok := byKey[key]
		if !ok {
			idx = len(groups)
			byKey[key] = idx
			groups = append(groups, Group{
				Name:      key,
				Source:    ds.Source,
				Languages: ds.Languages,
				Extension: ds.Extension,
			})
		}
		groups[idx].Members = append(groups[idx].Members, Member{
			Path:      file,
			Languages: ds.Languages,
		})
	}
	return groups, nil
}

func groupKey(file string, levels []int) (string, error) {
	names := ancestorNames(file)
	parts := make([]string, 0, len(levels))
	for _, level := range levels {
		if level > len(names) {
			return "", fmt.Errorf("group level %d exceeds directory depth of %s", level, file)
		}
		parts = append(parts, names[level-1])
	}
	return strings.Join(parts, "-"), nil
}

// ancestorNames lists the directory names above file, nearest first.
func ancestorNames(file string) []string {
	var names []string
	dir := filepath.Dir(file)
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		name := filepath.Base(dir)
		if name == "." {
			break
		}
		names = append(names, name)
		dir = parent
	}
	return names
}

// FromManifest parses a delimited filelist and groups members by speaker.
// Each line is "path|speaker|languages|text" with languages comma-separated.
// A malformed line is a configuration error that aborts discovery. Group
// languages are captured from the group's first member.
func FromManifest(path string) ([]Group, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()

	byKey := make(map[string]int)
	var groups []Group

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, manifestDelimiter)
		if len(fields) != 4 {
			return nil, fmt.Errorf("%s:%d: expected 4 fields separated by %q, got %d", path, lineNo, manifestDelimiter, len(fields))
		}

		languages := splitLanguages(fields[2])
		if len(languages) == 0 {
			return nil, fmt.Errorf("%s:%d: empty language list", path, lineNo)
		}

		speaker := strings.TrimSpace(fields[1])
		if speaker == "" {
			return nil, fmt.Errorf("%s:%d: empty speaker", path, lineNo)
		}

		idx, ok := byKey[speaker]
		if !ok {
			idx = len(groups)
			byKey[speaker] = idx
			groups = append(groups, Group{
				Name:      speaker,
				Source:    ManifestSource,
				Languages: languages,
			})
		}
		groups[idx].Members = append(groups[idx].Members, Member{
			Path:      strings.TrimSpace(fields[0]),
			Text:      fields[3],
			HasText:   true,
			Languages: languages,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return groups, nil
}

func splitLanguages(field string) []string {
	parts := strings.Split(field, ",")
	languages := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			languages = append(languages, part)
		}
	}
	return languages
}
