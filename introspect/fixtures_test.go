package introspect

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/sysdream/fino/catalog"
)

// ---------------------------------------------------------------------------
// Fixtures: a three-level embedding chain, an overloaded type, an affine type
// and a few sequences.
// ---------------------------------------------------------------------------

type Base struct {
	ID     int
	secret string
}

func (b *Base) Hello() string { return "hello " + b.secret }

type Middle struct {
	Base
	Label string
}

func (m *Middle) Tag() string { return "#" + m.Label }

type Leaf struct {
	*Middle
	Next  *Leaf
	Name  string
	count int
}

func (l *Leaf) Rename(name string) { l.Name = name }

func (l *Leaf) String() string { return "leaf " + l.Name }

func newLeaf(name string) *Leaf {
	return &Leaf{
		Middle: &Middle{Base: Base{ID: 7, secret: "s3"}, Label: "mid"},
		Name:   name,
		count:  3,
	}
}

type Greeter struct {
	Last string
}

func (g *Greeter) Fail() error { return errors.New("greeter failed") }

type recorder struct {
	posted []func()
}

func (r *recorder) Post(fn func()) { r.posted = append(r.posted, fn) }

type Widget struct {
	owner *recorder
	calls int
}

func (w *Widget) Executor() Executor { return w.owner }

func (w *Widget) Poke() {
	w.calls++
	if w.calls == 1 {
		panic("wrong goroutine")
	}
}

type countdown struct {
	from int
}

func (c countdown) Iterator() Iterator { return &countdownIter{n: c.from} }

type countdownIter struct {
	n int
}

func (it *countdownIter) Next() (any, bool) {
	if it.n <= 0 {
		return nil, false
	}
	it.n--
	return it.n + 1, true
}

func evens(n int) func(func(int) bool) {
	return func(yield func(int) bool) {
		for i := 0; i < n; i++ {
			if !yield(i * 2) {
				return
			}
		}
	}
}

// newFixtureCatalog registers the overloads F(int) and F(string) on Greeter,
// in the order given.
func newFixtureCatalog(stringFirst bool) *catalog.Catalog {
	c := catalog.New()
	byInt := catalog.WithMethod("F", func(g *Greeter, n int) string {
		g.Last = fmt.Sprintf("int %d", n)
		return g.Last
	})
	byString := catalog.WithMethod("F", func(g *Greeter, s string) string {
		g.Last = "string " + s
		return g.Last
	})
	opts := []catalog.Option{byInt, byString}
	if stringFirst {
		opts = []catalog.Option{byString, byInt}
	}
	opts = append(opts,
		catalog.Named("fixture.Greeter"),
		catalog.WithConstructor("NewGreeter", func(last string) *Greeter { return &Greeter{Last: last} }),
		catalog.WithConstructor("Broken", func(n int) (*Greeter, error) { return nil, fmt.Errorf("broken %d", n) }),
	)
	c.MustRegister(reflect.TypeOf(Greeter{}), opts...)
	c.MustRegister(reflect.TypeOf(Leaf{}), catalog.Named("fixture.Leaf"))
	c.MustRegister(reflect.TypeOf(Middle{}), catalog.Named("fixture.Middle"))
	c.MustRegister(reflect.TypeOf(Base{}), catalog.Named("fixture.Base"))
	c.MustRegister(catalog.TypeOf[fmt.Stringer](), catalog.Named("fmt.Stringer"))
	return c
}
