// Package settings edits the face swap engine's ini file.
//
// Only keys that already exist are written; unknown section/key pairs are
// reported and skipped so a typo never adds junk to the engine config. The
// whole file is rewritten on every call, even when nothing changed.
//
// The file is shared state for every process that reads it. Running two
// workflows against the same file at the same time is not supported.
package settings

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/ini.v1"
)

type Change struct {
	Section string
	Key     string
	Value   string
}

func Set(section, key, value string) Change {
	return Change{Section: section, Key: key, Value: value}
}

// Update applies changes to the ini file at path and returns how many were
// applied.
func Update(path string, changes []Change, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := ini.Load(path)
	if err != nil {
		return 0, fmt.Errorf("load settings %s: %w", path, err)
	}

	applied := 0
	for _, c := range changes {
		sec, err := f.GetSection(c.Section)
		if err != nil || !sec.HasKey(c.Key) {
			log.Warn("settings key not found, skipping",
				zap.String("file", path),
				zap.String("section", c.Section),
				zap.String("key", c.Key),
			)
			logLayout(log, f)
			continue
		}
		sec.Key(c.Key).SetValue(c.Value)
		applied++
	}

	if err := f.SaveTo(path); err != nil {
		return applied, fmt.Errorf("save settings %s: %w", path, err)
	}
	return applied, nil
}

// Clear empties every key named in changes. Values in changes are ignored.
func Clear(path string, changes []Change, log *zap.Logger) error {
	cleared := make([]Change, len(changes))
	for i, c := range changes {
		cleared[i] = Change{Section: c.Section, Key: c.Key}
	}
	_, err := Update(path, cleared, log)
	return err
}

func logLayout(log *zap.Logger, f *ini.File) {
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		for _, k := range sec.Keys() {
			log.Info("settings entry",
				zap.String("section", sec.Name()),
				zap.String("key", k.Name()),
				zap.String("value", k.Value()),
			)
		}
	}
}
