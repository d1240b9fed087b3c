package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/folio/internal/docs"
	"github.com/starford/folio/internal/livereload"
	"github.com/starford/folio/internal/navigation"
	"github.com/starford/folio/internal/uri"
)

// ConfigFile is the name of the project configuration file.
const ConfigFile = "folio.yaml"

// Config represents the project configuration.
type Config struct {
	Title      string            `yaml:"title"`
	DocsDir    string            `yaml:"docs_dir"`
	OutDir     string            `yaml:"out_dir"`
	BasePath   string            `yaml:"base_path"`
	Navigation []NavRuleConfig   `yaml:"navigation"`
	App        ApplicationConfig `yaml:"app"`
	Search     SearchConfig      `yaml:"search"`

	// root is the project directory relative paths are resolved against.
	root string
}

// Validate validates the configuration and normalizes the base path.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.DocsDir, validation.Required),
		validation.Field(&c.OutDir, validation.Required),
		validation.Field(&c.BasePath, validation.By(noDotSegments)),
	); err != nil {
		return err
	}
	c.BasePath = uri.NormalizeBase(c.BasePath)

	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.validateDirs(); err != nil {
		return err
	}
	for _, r := range c.Navigation {
		if err := r.validate(c.Root(), c.DocsPath()); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateDirs() error {
	info, err := os.Stat(c.DocsPath())
	if err != nil {
		return fmt.Errorf("docs_dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("docs_dir: %s is not a directory", c.DocsPath())
	}

	// Builds remove out_dir wholesale, so it must not hold any source.
	out, err := filepath.Abs(c.OutPath())
	if err != nil {
		return fmt.Errorf("out_dir: %w", err)
	}
	root, err := filepath.Abs(c.Root())
	if err != nil {
		return fmt.Errorf("out_dir: %w", err)
	}
	docsDir, err := filepath.Abs(c.DocsPath())
	if err != nil {
		return fmt.Errorf("docs_dir: %w", err)
	}
	switch {
	case out == root || within(out, root):
		return errors.New("out_dir: must not be or contain the project root")
	case out == docsDir || within(docsDir, out):
		return errors.New("out_dir: must not be inside docs_dir")
	case within(out, docsDir):
		return errors.New("out_dir: must not contain docs_dir")
	}
	return nil
}

func noDotSegments(v any) error {
	s, _ := v.(string)
	for _, seg := range strings.Split(s, "/") {
		if seg == ".." || seg == "." {
			return errors.New("must not contain dot segments")
		}
	}
	return nil
}

// SetRoot sets the project directory. Loaders call it with the directory the
// configuration file was found in.
func (c *Config) SetRoot(dir string) {
	c.root = dir
}

// Root returns the project directory.
func (c *Config) Root() string {
	if c.root == "" {
		return "."
	}
	return c.root
}

// DocsPath returns the absolute-or-root-relative docs directory.
func (c *Config) DocsPath() string {
	return c.resolve(c.DocsDir)
}

// OutPath returns the output directory of one-shot builds.
func (c *Config) OutPath() string {
	return c.resolve(c.OutDir)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Root(), p)
}

// NavigationRules converts the configured rules to docs-relative navigation rules.
func (c *Config) NavigationRules() []navigation.Rule {
	if len(c.Navigation) == 0 {
		return nil
	}
	out := make([]navigation.Rule, 0, len(c.Navigation))
	for _, r := range c.Navigation {
		out = append(out, r.rule(c.Root(), c.DocsPath()))
	}
	return out
}

// ApplicationConfig holds process-level configuration.
type ApplicationConfig struct {
	LogLevel   slog.Level       `yaml:"log_level"`
	HTTP       HTTPConfig       `yaml:"http"`
	LiveReload LiveReloadConfig `yaml:"livereload"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.LiveReload.Validate(); err != nil {
		return err
	}
	if c.HTTP.Port == c.LiveReload.Port {
		return fmt.Errorf("app: http and livereload ports must differ (both %d)", c.HTTP.Port)
	}
	return nil
}

// HTTPConfig holds preview server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// LiveReloadConfig holds the live-reload endpoint configuration.
type LiveReloadConfig struct {
	Port int `yaml:"port"`
}

// Address returns the live-reload server address.
func (c *LiveReloadConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the live-reload configuration.
func (c *LiveReloadConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// MetricsConfig toggles the dev-server metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SearchConfig holds the MCP search index location.
type SearchConfig struct {
	// DBPath is the SQLite file. Empty means a temporary file.
	DBPath string `yaml:"db_path"`
}

// NavRuleConfig is one navigation override as written in folio.yaml. Paths
// are relative to the project root.
type NavRuleConfig struct {
	Path     string      `yaml:"path"`
	Children NavChildren `yaml:"children"`
}

// NavChildren is either the wildcard "*" or an explicit list of rules.
// The zero value includes no children.
type NavChildren struct {
	All   bool
	Rules []NavRuleConfig
}

// UnmarshalYAML accepts "*" or a sequence of rules.
func (n *NavChildren) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "*" {
			n.All = true
			return nil
		}
		return fmt.Errorf("navigation children: want \"*\" or a list, got %q", node.Value)
	case yaml.SequenceNode:
		return node.Decode(&n.Rules)
	default:
		return fmt.Errorf("navigation children: want \"*\" or a list")
	}
}

func (n NavChildren) set() bool {
	return n.All || len(n.Rules) > 0
}

func (r NavRuleConfig) validate(root, docsDir string) error {
	if r.Path == "" {
		return errors.New("navigation: rule without path")
	}
	if filepath.IsAbs(r.Path) {
		return fmt.Errorf("navigation: %s: must be relative to the project root", r.Path)
	}
	full := r.resolved(root)
	if !within(docsDir, full) {
		return fmt.Errorf("navigation: %s: not inside the docs directory", r.Path)
	}
	info, err := os.Stat(full)
	if err != nil {
		return fmt.Errorf("navigation: %s: does not exist", r.Path)
	}
	if !info.IsDir() {
		if r.Children.set() {
			return fmt.Errorf("navigation: %s: children are only allowed on directories", r.Path)
		}
		if !isMarkdown(full) {
			return fmt.Errorf("navigation: %s: not a Markdown file", r.Path)
		}
		if full == filepath.Join(docsDir, docs.IndexFile) {
			return fmt.Errorf("navigation: %s: the root index is not a navigation entry", r.Path)
		}
	}
	for _, child := range r.Children.Rules {
		if err := child.validate(root, docsDir); err != nil {
			return err
		}
		if !within(full, child.resolved(root)) {
			return fmt.Errorf("navigation: %s: not inside %s", child.Path, r.Path)
		}
	}
	return nil
}

func (r NavRuleConfig) resolved(root string) string {
	return filepath.Join(root, filepath.FromSlash(r.Path))
}

func (r NavRuleConfig) rule(root, docsDir string) navigation.Rule {
	rel, err := filepath.Rel(docsDir, r.resolved(root))
	if err != nil {
		rel = r.Path
	}
	rel = filepath.ToSlash(rel)
	if isMarkdown(rel) {
		return navigation.File(rel)
	}

	include := navigation.IncludeNone
	if r.Children.All {
		include = navigation.IncludeAll
	}
	children := make([]navigation.Rule, 0, len(r.Children.Rules))
	for _, child := range r.Children.Rules {
		children = append(children, child.rule(root, docsDir))
	}
	return navigation.Dir(rel, include, children...)
}

func isMarkdown(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".md")
}

// within reports whether child lies strictly below parent.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// NewDefaultConfig returns a Config for a project rooted at root with
// sensible default values.
func NewDefaultConfig(root string) *Config {
	return &Config{
		DocsDir:  "docs",
		OutDir:   "site",
		BasePath: "/",
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 4001,
			},
			LiveReload: LiveReloadConfig{
				Port: livereload.DefaultPort,
			},
			Metrics: MetricsConfig{
				Enabled: true,
			},
		},
		root: root,
	}
}
