package email

// Template names an embedded email template.
type Template string

const (
	TemplateWelcome        Template = "welcome"
	TemplateRequestCreated Template = "solicitud_nueva"
	TemplateRequestUpdated Template = "solicitud_actualizada"
)

// Templates lists every template, in a stable order.
var Templates = []Template{TemplateWelcome, TemplateRequestCreated, TemplateRequestUpdated}

// File is the template's file name inside templates/.
func (t Template) File() string {
	return string(t) + ".html"
}
