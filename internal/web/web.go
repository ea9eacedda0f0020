// Package web embeds the HTML pages served by the api handlers.
package web

import (
	"embed"
	"html/template"
	"strconv"

	"quotation_system/internal/quotation"
)

//go:embed templates/*.html
var files embed.FS

// Funcs are the helpers available to every page.
var Funcs = template.FuncMap{
	"amount": quotation.FormatAmount,
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
	"inc": func(i int) int { return i + 1 },
}

// Templates parses the embedded pages. Each page is addressed by its file
// name, e.g. "history.html".
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(Funcs).ParseFS(files, "templates/*.html"))
}
