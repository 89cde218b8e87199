package email

import (
	"context"
	"fmt"
)

// SendWelcomeEmail greets a freshly registered account.
func (c *Client) SendWelcomeEmail(ctx context.Context, to, nombre, tipo string) error {
	return c.SendEmail(ctx, to, "¡Bienvenido a Zerby!", TemplateWelcome, map[string]any{
		"Nombre": nombre,
		"Tipo":   tipo,
	})
}

// RequestCreated is the data of the email a provider gets for a new request.
type RequestCreated struct {
	SolicitudID     int64
	ProveedorNombre string
	UsuarioNombre   string
	Descripcion     string
	Direccion       string
}

func (c *Client) SendRequestCreatedEmail(ctx context.Context, to string, d RequestCreated) error {
	return c.SendEmail(ctx, to, fmt.Sprintf("Nueva solicitud de servicio #%d", d.SolicitudID), TemplateRequestCreated, map[string]any{
		"SolicitudID":     d.SolicitudID,
		"ProveedorNombre": d.ProveedorNombre,
		"UsuarioNombre":   d.UsuarioNombre,
		"Descripcion":     d.Descripcion,
		"Direccion":       d.Direccion,
	})
}

// RequestUpdated is the data of a request status-change email.
type RequestUpdated struct {
	SolicitudID int64
	Nombre      string
	Estado      string
	Mensaje     string
	Monto       string
}

func (c *Client) SendRequestUpdatedEmail(ctx context.Context, to string, d RequestUpdated) error {
	return c.SendEmail(ctx, to, fmt.Sprintf("Tu solicitud #%d está %s", d.SolicitudID, d.Estado), TemplateRequestUpdated, map[string]any{
		"SolicitudID": d.SolicitudID,
		"Nombre":      d.Nombre,
		"Estado":      d.Estado,
		"Mensaje":     d.Mensaje,
		"Monto":       d.Monto,
	})
}
