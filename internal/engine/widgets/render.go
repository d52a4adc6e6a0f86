package widgets

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"io"
	"sync"
	"text/template"

	"boardly/internal/platform/models"
)

//go:embed assets/*.tmpl
var assets embed.FS

var (
	loaderTmpl = template.Must(template.ParseFS(assets, "assets/loader.js.tmpl"))
	pageTmpl   = htmltemplate.Must(htmltemplate.ParseFS(assets, "assets/page.html.tmpl"))

	loadersOnce sync.Once
	loaders     map[Kind][]byte
	loadersErr  error
)

// Loader returns the rendered bootstrap script for kind. Scripts depend
// only on the kind, so they are rendered once.
func Loader(kind Kind) ([]byte, error) {
	loadersOnce.Do(func() {
		loaders = make(map[Kind][]byte, len(specs))
		for _, s := range specs {
			var buf bytes.Buffer
			if err := loaderTmpl.Execute(&buf, s); err != nil {
				loadersErr = err
				return
			}
			loaders[s.Kind] = buf.Bytes()
		}
	})
	if loadersErr != nil {
		return nil, loadersErr
	}

	js, ok := loaders[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return js, nil
}

// Page is what an embed page needs to render.
type Page struct {
	Kind         Kind
	Org          string
	OrgName      string
	ParentOrigin string
	Sentinel     string
	Link         string
	Target       string
	Entry        *models.ChangelogEntry
	Entries      []*models.ChangelogEntry
}

func RenderPage(w io.Writer, p Page) error {
	return pageTmpl.Execute(w, p)
}
