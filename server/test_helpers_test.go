package server

import (
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/sysdream/fino/catalog"
	"github.com/sysdream/fino/inspect"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
//
// Every test gets its own service and HTTP server; the catalog is shared.
// ---------------------------------------------------------------------------

type Note struct {
	Text string
	Next *Note
}

func (n *Note) Rename(text string) { n.Text = text }

func (n *Note) String() string { return "note " + n.Text }

func (n *Note) Upper() string { return strings.ToUpper(n.Text) }

var testCatalog = func() *catalog.Catalog {
	c := catalog.New()
	c.MustRegister(reflect.TypeOf(Note{}), catalog.Named("demo.Note"),
		catalog.WithConstructor("NewNote", func(text string) *Note { return &Note{Text: text} }))
	return c
}()

// newTestServer starts an HTTP server in front of a fresh service holding
// one root note.
func newTestServer(t *testing.T) (*inspect.Service, *httptest.Server) {
	t.Helper()
	svc := inspect.New(inspect.WithCatalog(testCatalog))
	t.Cleanup(svc.Close)
	if _, err := svc.Attach(&Note{Text: "first", Next: &Note{Text: "second"}}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	ts := httptest.NewServer(New(svc).Handler())
	t.Cleanup(ts.Close)
	return svc, ts
}
