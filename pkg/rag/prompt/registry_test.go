package prompt

import (
	"testing"
	"testing/fstest"

	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedRegistry(t *testing.T) {
	r, err := NewRegistry("")
	require.NoError(t, err)

	assert.Equal(t, DefaultLocale, r.DefaultLocale())
	assert.Equal(t, []string{"ar", "en"}, r.Locales())

	for _, locale := range r.Locales() {
		for _, key := range []string{KeySystemPrompt, KeyDocumentPrompt, KeyFooterPrompt} {
			_, err := r.Render(GroupRAG, key, locale, map[string]any{"DocNum": 1, "ChunkText": "x", "Query": "q"})
			assert.NoError(t, err, "%s/%s", locale, key)
		}
	}
}

func TestRenderFallsBackToDefaultLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"en.yaml": {Data: []byte("rag:\n  greeting: \"hello {{.Name}}\"\n  only_en: \"english\"\n")},
		"fr.yaml": {Data: []byte("rag:\n  greeting: \"bonjour {{.Name}}\"\n")},
	}
	r, err := NewRegistryFromFS(fsys, "en")
	require.NoError(t, err)

	out, err := r.Render("rag", "greeting", "fr", map[string]any{"Name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "bonjour Ana", out)

	out, err = r.Render("rag", "only_en", "fr", nil)
	require.NoError(t, err)
	assert.Equal(t, "english", out)

	out, err = r.Render("rag", "greeting", "de", map[string]any{"Name": "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "hello Ana", out)

	_, err = r.Render("rag", "missing", "fr", nil)
	assert.ErrorIs(t, err, apperror.ErrTemplateNotFound)
}

func TestRegistryRequiresDefaultLocale(t *testing.T) {
	fsys := fstest.MapFS{"fr.yaml": {Data: []byte("rag:\n  k: v\n")}}
	_, err := NewRegistryFromFS(fsys, "en")
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	fsys := fstest.MapFS{
		"en.yaml": {Data: []byte(
			"rag:\n" +
				"  system_prompt: \"SYS\"\n" +
				"  document_prompt: \"[{{.DocNum}}] {{.ChunkText}}\"\n" +
				"  footer_prompt: \"Q: {{.Query}}\"\n")},
	}
	r, err := NewRegistryFromFS(fsys, "en")
	require.NoError(t, err)

	p, err := NewRAGBuilder(r).Build("en", "why?", []Document{{Text: "alpha"}, {Text: "beta"}})
	require.NoError(t, err)

	assert.Equal(t, "SYS", p.SystemPrompt)
	assert.Equal(t, "[1] alpha\n[2] beta\n\nQ: why?", p.FullPrompt)
	assert.Equal(t, []llm.Message{{Role: llm.RoleSystem, Content: "SYS"}}, p.History)
}

func TestBuildMissingTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"en.yaml": {Data: []byte("rag:\n  system_prompt: \"SYS\"\n  document_prompt: \"{{.ChunkText}}\"\n")},
	}
	r, err := NewRegistryFromFS(fsys, "en")
	require.NoError(t, err)

	p, err := NewRAGBuilder(r).Build("en", "q", []Document{{Text: "a"}})
	assert.ErrorIs(t, err, apperror.ErrTemplateNotFound)
	assert.Nil(t, p)
}
