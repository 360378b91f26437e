// Package html is the injected HTML-rendering collaborator the router
// owns (§9's "template dispatch" design note): the router decides page
// type from the alias table, this package turns a page type plus vars
// into status/headers/body.
package html

import (
	"bytes"
	"html/template"
)

// PageType is one of the HTML surfaces the alias table dispatches to.
type PageType string

const (
	Public  PageType = "public"
	Admin   PageType = "admin"
	Display PageType = "display"
	Poster  PageType = "poster"
	Report  PageType = "report"

	// LinkNotFound and ServerError are the shortlink resolver's error
	// shells (§6), not part of the alias table.
	LinkNotFound PageType = "link-not-found"
	ServerError  PageType = "server-error"
)

var templates = map[PageType]*template.Template{
	Public:       template.Must(template.New("public").Parse(shellHTML)),
	Admin:        template.Must(template.New("admin").Parse(shellHTML)),
	Display:      template.Must(template.New("display").Parse(shellHTML)),
	Poster:       template.Must(template.New("poster").Parse(shellHTML)),
	Report:       template.Must(template.New("report").Parse(shellHTML)),
	LinkNotFound: template.Must(template.New("link-not-found").Parse(errorHTML)),
	ServerError:  template.Must(template.New("server-error").Parse(errorHTML)),
}

// shellHTML is a minimal single-page-app shell: the real UI is an SPA
// bundle (out of scope here); the gateway's job is to hand it the
// brand/event context it was built with, not to server-render markup.
const shellHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body data-page="{{.Page}}" data-brand="{{.BrandID}}" data-event-id="{{.EventID}}">
<div id="app"></div>
</body>
</html>
`

const errorHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<main>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
<a href="/">Back to home</a>
</main>
</body>
</html>
`

// Vars is the render context for a page. Unused fields are simply
// omitted by the template for a given page type.
type Vars struct {
	Title   string
	Page    string
	BrandID string
	EventID string
	Message string
}

// Render renders pageType with vars, returning the status, response
// headers, and body the router/handler should write verbatim. Render
// never fails: an unknown page type falls back to the generic server
// error shell, since by the time a handler reaches here the route has
// already been matched.
func Render(status int, pageType PageType, vars Vars) (int, map[string]string, []byte) {
	tmpl, ok := templates[pageType]
	if !ok {
		tmpl = templates[ServerError]
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return 500, map[string]string{"Content-Type": "text/html; charset=utf-8"},
			[]byte("<!DOCTYPE html><title>Internal Server Error</title><h1>Internal Server Error</h1>")
	}

	headers := map[string]string{"Content-Type": "text/html; charset=utf-8"}
	return status, headers, buf.Bytes()
}

// NotFoundShell renders the shortlink-not-found error page (§6).
func NotFoundShell() (int, map[string]string, []byte) {
	return Render(404, LinkNotFound, Vars{Title: "Link Not Found", Message: "This link is no longer valid."})
}

// ServerErrorShell renders the generic shortlink server-error page.
func ServerErrorShell() (int, map[string]string, []byte) {
	return Render(500, ServerError, Vars{Title: "Something Went Wrong", Message: "This link could not be resolved."})
}
