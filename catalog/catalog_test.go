package catalog

import (
	"errors"
	"reflect"
	"testing"
)

type widget struct {
	Label string
}

type gadget struct{}

type labeler interface {
	Label() string
}

func newWidget(label string) *widget { return &widget{Label: label} }

func TestRegister_LookupByName(t *testing.T) {
	c := New()
	if err := c.Register(TypeOf[widget]()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for _, name := range []string{"catalog.widget", "github.com/sysdream/fino/catalog.widget"} {
		got, err := c.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if got != reflect.TypeOf(widget{}) {
			t.Errorf("Lookup(%q) = %v, want widget", name, got)
		}
	}
}

func TestRegister_PointerIsNormalized(t *testing.T) {
	c := New()
	if err := c.Register(reflect.TypeOf(&widget{})); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, err := c.Lookup("*catalog.widget")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != reflect.TypeOf(&widget{}) {
		t.Errorf("Lookup(*catalog.widget) = %v", got)
	}
}

func TestRegister_Named(t *testing.T) {
	c := New()
	if err := c.Register(TypeOf[widget](), Named("ui.Widget")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := c.NameOf(reflect.TypeOf(&widget{})); got != "*ui.Widget" {
		t.Errorf("NameOf = %q, want %q", got, "*ui.Widget")
	}
	if _, err := c.Lookup("ui.Widget"); err != nil {
		t.Errorf("Lookup(ui.Widget): %v", err)
	}
}

func TestRegister_Conflict(t *testing.T) {
	c := New()
	if err := c.Register(TypeOf[widget](), Named("thing")); err != nil {
		t.Fatalf("Register widget: %v", err)
	}
	err := c.Register(TypeOf[gadget](), Named("thing"))
	if !errors.Is(err, ErrConflictingRegistration) {
		t.Fatalf("expected ErrConflictingRegistration, got %v", err)
	}
	// The failed registration must not leave gadget half-registered.
	if _, err := c.Lookup("catalog.gadget"); !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("gadget should not be registered, Lookup err = %v", err)
	}
}

func TestRegister_NilType(t *testing.T) {
	if err := New().Register(nil); !errors.Is(err, ErrNilType) {
		t.Errorf("expected ErrNilType, got %v", err)
	}
}

func TestLookup_Builtins(t *testing.T) {
	c := New()
	for _, name := range []string{"int", "string", "bool", "float64", "error", "any", "[]string", "*int"} {
		if _, err := c.Lookup(name); err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
		}
	}
	if _, err := c.Lookup("no.Such"); !errors.Is(err, ErrTypeNotFound) {
		t.Errorf("expected ErrTypeNotFound, got %v", err)
	}
}

func TestWithConstructor(t *testing.T) {
	c := New()
	err := c.Register(TypeOf[widget](),
		WithConstructor("newWidget", newWidget),
		WithConstructor("zero", func() (widget, error) { return widget{}, nil }),
	)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	ctors := c.Constructors(reflect.TypeOf(&widget{}))
	if len(ctors) != 2 {
		t.Fatalf("expected 2 constructors, got %d", len(ctors))
	}
	if ctors[0].Name != "newWidget" || ctors[1].Name != "zero" {
		t.Errorf("constructors out of order: %q, %q", ctors[0].Name, ctors[1].Name)
	}
}

func TestWithConstructor_Invalid(t *testing.T) {
	c := New()
	cases := map[string]any{
		"not a func":   42,
		"wrong result": func() *gadget { return nil },
		"bad second":   func() (*widget, int) { return nil, 0 },
	}
	for name, fn := range cases {
		err := c.Register(TypeOf[widget](), WithConstructor(name, fn))
		if !errors.Is(err, ErrBadConstructor) {
			t.Errorf("%s: expected ErrBadConstructor, got %v", name, err)
		}
	}
	if got := c.Constructors(TypeOf[widget]()); len(got) != 0 {
		t.Errorf("invalid constructors were recorded: %d", len(got))
	}
}

func TestWithMethod(t *testing.T) {
	c := New()
	err := c.Register(TypeOf[widget](),
		WithMethod("Set", func(w *widget, s string) { w.Label = s }),
		WithMethod("Set", func(w *widget, n int) { w.Label = "n" }),
	)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := len(c.Methods(TypeOf[widget]())); got != 2 {
		t.Errorf("expected 2 methods, got %d", got)
	}

	err = c.Register(TypeOf[widget](), WithMethod("Bad", func(g *gadget) {}))
	if !errors.Is(err, ErrBadMethod) {
		t.Errorf("expected ErrBadMethod, got %v", err)
	}
}

func TestWithNested(t *testing.T) {
	c := New()
	if err := c.Register(TypeOf[widget](), WithNested("gadget", TypeOf[gadget]())); err != nil {
		t.Fatalf("Register: %v", err)
	}
	nested := c.Nested(TypeOf[widget]())
	if len(nested) != 1 || nested[0].Type != TypeOf[gadget]() {
		t.Fatalf("Nested = %v", nested)
	}
	if _, err := c.Lookup("catalog.gadget"); err != nil {
		t.Errorf("nested type should be resolvable: %v", err)
	}
}

func TestInterfaces(t *testing.T) {
	c := New()
	c.MustRegister(TypeOf[labeler]())
	c.MustRegister(TypeOf[widget]())
	ifaces := c.Interfaces()
	if len(ifaces) != 1 || ifaces[0] != TypeOf[labeler]() {
		t.Errorf("Interfaces = %v", ifaces)
	}
}

func TestGeneration(t *testing.T) {
	c := New()
	g0 := c.Generation()
	c.MustRegister(TypeOf[widget]())
	if c.Generation() == g0 {
		t.Error("Generation should change after a registration")
	}
	g1 := c.Generation()
	_ = c.Register(nil)
	if c.Generation() != g1 {
		t.Error("Generation should not change after a failed registration")
	}
}
