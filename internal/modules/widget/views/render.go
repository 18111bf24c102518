package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
)

var widgetTmpl *template.Template

// loadTemplatesFromFS loads the widget templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	widgetTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// WidgetData is what one page load rendered into the three surfaces.
type WidgetData struct {
	PageLoadID  string
	Station     string
	State       string
	Temperature string
	Status      string
	Message     string
}

var errNotLoaded = errors.New("widget template not loaded: call views.LoadTemplates during startup")

func RenderPage(w io.Writer, data *WidgetData) error {
	if widgetTmpl == nil {
		return errNotLoaded
	}
	return widgetTmpl.ExecuteTemplate(w, "page.html", data)
}

// RenderWidgetPartial executes only the widget fragment, for embedding the
// widget into a host page.
func RenderWidgetPartial(w io.Writer, data *WidgetData) error {
	if widgetTmpl == nil {
		return errNotLoaded
	}
	return widgetTmpl.ExecuteTemplate(w, "partials/widget.html", data)
}
