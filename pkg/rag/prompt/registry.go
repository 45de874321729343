package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"rag-pipeline-be/pkg/apperror"

	"gopkg.in/yaml.v3"
)

const (
	GroupRAG = "rag"

	KeySystemPrompt   = "system_prompt"
	KeyDocumentPrompt = "document_prompt"
	KeyFooterPrompt   = "footer_prompt"

	DefaultLocale = "en"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Registry maps (group, key, locale) to a template compiled at startup.
type Registry struct {
	defaultLocale string
	templates     map[string]*template.Template
	locales       []string
}

func registryKey(group, key, locale string) string {
	return group + "/" + key + "/" + locale
}

// NewRegistry compiles the embedded locale files.
func NewRegistry(defaultLocale string) (*Registry, error) {
	sub, err := fs.Sub(localeFS, "locales")
	if err != nil {
		return nil, err
	}
	return NewRegistryFromFS(sub, defaultLocale)
}

// NewRegistryFromFS compiles every <locale>.yaml at the root of fsys.
// Each file holds group -> key -> template text.
func NewRegistryFromFS(fsys fs.FS, defaultLocale string) (*Registry, error) {
	if defaultLocale == "" {
		defaultLocale = DefaultLocale
	}
	r := &Registry{
		defaultLocale: defaultLocale,
		templates:     make(map[string]*template.Template),
	}

	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		locale := strings.TrimSuffix(path.Base(file), ".yaml")
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", locale, err)
		}

		var groups map[string]map[string]string
		if err := yaml.Unmarshal(data, &groups); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", locale, err)
		}

		for group, keys := range groups {
			for key, text := range keys {
				name := registryKey(group, key, locale)
				tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
				if err != nil {
					return nil, fmt.Errorf("compile template %s: %w", name, err)
				}
				r.templates[name] = tmpl
			}
		}
		r.locales = append(r.locales, locale)
	}
	sort.Strings(r.locales)

	if !r.HasLocale(defaultLocale) {
		return nil, fmt.Errorf("default locale %q has no templates", defaultLocale)
	}
	return r, nil
}

func (r *Registry) DefaultLocale() string {
	return r.defaultLocale
}

func (r *Registry) Locales() []string {
	return append([]string(nil), r.locales...)
}

func (r *Registry) HasLocale(locale string) bool {
	for _, l := range r.locales {
		if l == locale {
			return true
		}
	}
	return false
}

func (r *Registry) lookup(group, key, locale string) (*template.Template, bool) {
	if locale != "" {
		if tmpl, ok := r.templates[registryKey(group, key, locale)]; ok {
			return tmpl, true
		}
	}
	tmpl, ok := r.templates[registryKey(group, key, r.defaultLocale)]
	return tmpl, ok
}

// Render resolves the template in locale, then in the default locale.
func (r *Registry) Render(group, key, locale string, vars any) (string, error) {
	tmpl, ok := r.lookup(group, key, locale)
	if !ok {
		return "", fmt.Errorf("%w: %s/%s (locale %q, default %q)",
			apperror.ErrTemplateNotFound, group, key, locale, r.defaultLocale)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render template %s/%s: %w", group, key, err)
	}
	return buf.String(), nil
}
