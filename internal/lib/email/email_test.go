package email

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastianleon1-sys/Zerby2/internal/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logger := zerolog.Nop()
	c, err := NewClient(&config.Config{
		Integration: config.IntegrationConfig{EmailFrom: "Zerby <test@example.com>"},
	}, &logger)
	require.NoError(t, err)
	return c
}

func TestRender_AllTemplatesWithPreviewData(t *testing.T) {
	c := newTestClient(t)

	for _, name := range Templates {
		t.Run(string(name), func(t *testing.T) {
			data, ok := PreviewData[name]
			require.True(t, ok, "missing preview data")

			html, err := c.Render(name, data)
			require.NoError(t, err)
			assert.Contains(t, html, "<html")
		})
	}
}

func TestRender_Content(t *testing.T) {
	c := newTestClient(t)

	html, err := c.Render(TemplateWelcome, map[string]any{"Nombre": "ana pérez", "Tipo": "proveedor"})
	require.NoError(t, err)
	assert.Contains(t, html, "Ana Pérez")
	assert.Contains(t, html, "perfil de proveedor")

	html, err = c.Render(TemplateRequestUpdated, PreviewData[TemplateRequestUpdated])
	require.NoError(t, err)
	assert.Contains(t, html, "ACEPTADA")
	assert.Contains(t, html, "$25000.00")

	html, err = c.Render(TemplateRequestCreated, map[string]any{
		"SolicitudID":   int64(3),
		"UsuarioNombre": "<script>x</script>",
		"Descripcion":   "arreglo",
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>", "html/template escapes user input")
	assert.NotContains(t, html, "Dirección")
}

func TestRender_UnknownTemplate(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Render(Template("nope"), nil)
	assert.Error(t, err)
}

func TestSendEmail_DisabledWithoutAPIKey(t *testing.T) {
	c := newTestClient(t)
	assert.False(t, c.Enabled())
	assert.NoError(t, c.SendWelcomeEmail(context.Background(), "a@b.cl", "Ana", "usuario"))
}
