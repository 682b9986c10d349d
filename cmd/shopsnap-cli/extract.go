package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/use-agent/shopsnap/extractor"
)

// Run executes the extract command. Files are parsed as-is; URLs go
// through the browser.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	var html, sourceURL string
	if isURL(c.Source) {
		var err error
		html, err = deps.Acquirer.Acquire(deps.Ctx, c.Source)
		if err != nil {
			return err
		}
		sourceURL = c.Source
	} else {
		data, err := os.ReadFile(c.Source)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", c.Source, err)
		}
		html = string(data)
		sourceURL = c.BaseURL
		if sourceURL == "" {
			abs, err := filepath.Abs(c.Source)
			if err != nil {
				return err
			}
			sourceURL = "file://" + filepath.ToSlash(abs)
		}
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(extractor.Extract(html, sourceURL))
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
