package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
)

// ProjectFileName is the project configuration file at the project root.
const ProjectFileName = "bang.yaml"

// ErrProjectNotFound is returned when the project directory does not exist.
var ErrProjectNotFound = ferrors.ConfigError("project directory not found").Build()

// ProjectFile is the typed part of bang.yaml. Every top-level key, typed
// or not, is also copied into the global scope by Apply.
type ProjectFile struct {
	Host        string        `yaml:"host"`
	Scheme      string        `yaml:"scheme"`
	Theme       string        `yaml:"theme"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Plugins     []string      `yaml:"plugins"`
	Assets      AssetsConfig  `yaml:"assets"`
	Embed       EmbedConfig   `yaml:"embed"`
	NATS        NATSConfig    `yaml:"nats"`
	Output      string        `yaml:"output"`
	Contexts    ContextConfig `yaml:"contexts"`

	raw map[string]any
}

// AssetsConfig orders injected assets. Each entry is a regular expression
// matched against the asset's file name.
type AssetsConfig struct {
	Order struct {
		Before []string `yaml:"before"`
		Middle []string `yaml:"middle"`
		After  []string `yaml:"after"`
	} `yaml:"order"`
	BodyScript string `yaml:"body_script"`
}

type EmbedConfig struct {
	Timeout string `yaml:"timeout"`
	Retries *int   `yaml:"retries"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ContextConfig holds per-context overrides, e.g. contexts.feed.scheme.
type ContextConfig map[string]map[string]any

// LoadProject reads bang.yaml and .env from root. A missing bang.yaml is not
// an error; a missing root is. ${VAR} references in bang.yaml are expanded
// after .env has been loaded.
func LoadProject(root string) (*ProjectFile, error) {
	st, err := os.Stat(root)
	if err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, root)
	}

	envFile := filepath.Join(root, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load .env").
			WithContext("file", envFile).
			Build()
	}

	pf := &ProjectFile{raw: map[string]any{}}
	path := filepath.Join(root, ProjectFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return pf, nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read project file").
			WithContext("file", path).
			Build()
	}
	if err := pf.parse([]byte(os.ExpandEnv(string(data)))); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse project file").
			WithContext("file", path).
			Fatal().
			Build()
	}
	return pf, nil
}

// ParseProject parses bang.yaml content without touching the filesystem.
func ParseProject(data []byte) (*ProjectFile, error) {
	pf := &ProjectFile{raw: map[string]any{}}
	if err := pf.parse(data); err != nil {
		return nil, err
	}
	return pf, nil
}

func (p *ProjectFile) parse(data []byte) error {
	if err := yaml.Unmarshal(data, p); err != nil {
		return err
	}
	return yaml.Unmarshal(data, &p.raw)
}

// Apply copies the file's settings into the global scope of c. Structured
// sections are flattened to the keys the pipeline reads.
func (p *ProjectFile) Apply(c *Config) {
	for k, v := range p.raw {
		switch k {
		case "assets", "embed", "nats", "contexts", "plugins":
			continue
		}
		c.SetGlobal(k, v)
	}
	if p.Embed.Timeout != "" {
		c.SetGlobal(KeyEmbedTimeout, p.Embed.Timeout)
	}
	if p.Embed.Retries != nil {
		c.SetGlobal(KeyEmbedRetries, *p.Embed.Retries)
	}
	if p.NATS.URL != "" {
		c.SetGlobal("nats_url", p.NATS.URL)
		c.SetGlobal("nats_subject", p.NATS.Subject)
	}
}

// ContextValues returns the overrides configured for the named context.
func (p *ProjectFile) ContextValues(name string) map[string]any {
	if p == nil {
		return nil
	}
	return p.Contexts[name]
}

// Section returns the mapping under a top-level key, such as a plugin's
// settings. A missing or non-mapping key yields nil.
func (p *ProjectFile) Section(name string) map[string]any {
	if p == nil {
		return nil
	}
	m, _ := p.raw[name].(map[string]any)
	return m
}
