package server

import (
	"bytes"
	"html/template"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<main>
<div class="flex justify-center mx-4 my-2">{{.Message}}</div>
</main>
</body>
</html>
`))

type pageData struct {
	Title   string
	Message string
}

func renderPage(data pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func verdictPage(verdict string) pageData {
	return pageData{Title: "Health check", Message: "Health check: " + verdict}
}

func unavailablePage() pageData {
	return pageData{Title: "Health check", Message: "Health check unavailable"}
}
