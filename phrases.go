package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"dailybingo/internal/bingo"
	"dailybingo/internal/types"
)

// loadPhrases reads the phrase pool from a JSON or YAML file. Blank entries
// and duplicates are dropped; the remaining pool must fill a whole board.
func loadPhrases(path string) ([]string, error) {
	logInfo("Loading phrases from %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list types.PhraseList
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &list)
	default:
		err = json.Unmarshal(data, &list)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	phrases := lo.Compact(lo.Map(list.Phrases, func(p string, _ int) string {
		return strings.TrimSpace(p)
	}))
	if dup := lo.FindDuplicates(phrases); len(dup) > 0 {
		logWarn("Dropping %d duplicate phrases: %q", len(dup), dup)
		phrases = lo.Uniq(phrases)
	}
	if len(phrases) < bingo.CardCount {
		return nil, fmt.Errorf("%w: %s has %d usable phrases, need %d", bingo.ErrPoolTooSmall, path, len(phrases), bingo.CardCount)
	}
	logInfo("Loaded %d phrases", len(phrases))
	return phrases, nil
}
