package web

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/a-h/templ"

	"github.com/rubiojr/prospect/pkg/engine"
	"github.com/rubiojr/prospect/pkg/leads"
	"github.com/rubiojr/prospect/pkg/render"
	"github.com/rubiojr/prospect/pkg/version"
)

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"number":  render.Number,
	"percent": render.Percent,
	"title":   render.Title,
	"join":    strings.Join,
	"hasStr":  func(list []string, s string) bool { return slices.Contains(list, s) },
}).Parse(pageHTML))

type pageData struct {
	State        engine.State
	Visible      []leads.Lead
	Below        int
	CSVEnabled   bool
	ExcelEnabled bool
	Version      string

	// rendered by the templ components in components.go
	Results template.HTML
	Pager   template.HTML
}

// Page renders the dashboard for one state snapshot. The results section
// and pager are templ components embedded into the page layout.
func Page(st engine.State, visible []leads.Lead) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		data := pageData{
			State:        st,
			Visible:      visible,
			CSVEnabled:   st.ExportEnabled[leads.FormatCSV],
			ExcelEnabled: st.ExportEnabled[leads.FormatExcel],
			Version:      version.Version,
		}
		if st.Results != nil {
			data.Below = max(len(st.Results.Leads)-st.Window.End, 0)
		}
		var err error
		if data.Results, err = templ.ToGoHTML(ctx, results(data)); err != nil {
			return fmt.Errorf("rendering results: %w", err)
		}
		if data.Pager, err = templ.ToGoHTML(ctx, pager(st.Controls)); err != nil {
			return fmt.Errorf("rendering pager: %w", err)
		}
		return pageTemplate.Execute(w, data)
	})
}

func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	st := s.state()
	templ.Handler(Page(st.State, st.Visible),
		templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
			s.logger.Errorf("rendering page: %v", err)
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s.writeError(w, http.StatusInternalServerError, "Render Failed", err.Error())
			})
		}),
	).ServeHTTP(w, r)
}
