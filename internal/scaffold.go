package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/folio/internal/apperr"
)

const configTemplate = `# Folio project configuration.
title: %q

docs_dir: docs
out_dir: site
base_path: /

# Navigation overrides. Paths are relative to this file.
# navigation:
#   - path: docs/README.md
#   - path: docs/guide
#     children: "*"

app:
  log_level: info
  http:
    port: 4001
  livereload:
    port: 35729
  metrics:
    enabled: true
`

const readmeTemplate = `# %s

Welcome to your documentation. Every Markdown file under ` + "`docs/`" + ` becomes a
page; ` + "`README.md`" + ` files are the landing pages of their directories.

Run ` + "`folio serve`" + ` to preview the site with live reload, and
` + "`folio build`" + ` to write it to ` + "`site/`" + `.
`

// Init scaffolds a project in root: a folio.yaml and a docs directory with
// a landing page. It returns apperr.ErrAlreadyExists when root already holds
// a configuration.
func Init(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("init: resolve root: %w", err)
	}
	cfgPath := filepath.Join(abs, ConfigFile)
	if _, err := os.Stat(cfgPath); err == nil {
		return "", fmt.Errorf("init: %s: %w", cfgPath, apperr.ErrAlreadyExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("init: %w", err)
	}

	title := projectTitle(filepath.Base(abs))

	docsDir := filepath.Join(abs, "docs")
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		return "", fmt.Errorf("init: create docs dir: %w", err)
	}
	readme := filepath.Join(docsDir, "README.md")
	if _, err := os.Stat(readme); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(readme, []byte(fmt.Sprintf(readmeTemplate, title)), 0o644); err != nil {
			return "", fmt.Errorf("init: write readme: %w", err)
		}
	}
	if err := os.WriteFile(cfgPath, []byte(fmt.Sprintf(configTemplate, title)), 0o644); err != nil {
		return "", fmt.Errorf("init: write config: %w", err)
	}
	return cfgPath, nil
}

// projectTitle turns a directory name like "my-project" into "My Project".
func projectTitle(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || name == "/" || name == "." {
		return "Documentation"
	}
	return cases.Title(language.English).String(name)
}
