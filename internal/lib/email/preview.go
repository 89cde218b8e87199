package email

// PreviewData holds sample values for every template, used by
// `zerby email-preview` and by the template tests.
var PreviewData = map[Template]map[string]any{
	TemplateWelcome: {
		"Nombre": "Camila Rojas",
		"Tipo":   "usuario",
	},
	TemplateRequestCreated: {
		"SolicitudID":     int64(17),
		"ProveedorNombre": "Jorge Muñoz",
		"UsuarioNombre":   "Camila Rojas",
		"Descripcion":     "Cambio de enchufes en la cocina",
		"Direccion":       "Av. Providencia 1234, Santiago",
	},
	TemplateRequestUpdated: {
		"SolicitudID": int64(17),
		"Nombre":      "Camila Rojas",
		"Estado":      "aceptada",
		"Mensaje":     "El proveedor aceptó tu solicitud por $25000.00",
		"Monto":       "25000.00",
	},
}
