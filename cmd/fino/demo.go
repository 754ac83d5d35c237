package main

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/sysdream/fino/catalog"
	"github.com/sysdream/fino/introspect"
	"github.com/sysdream/fino/loop"
)

// Application is the demo host's root object.
type Application struct {
	Name       string
	Activities []*MainActivity
	Settings   map[string]string
}

func (a *Application) String() string { return a.Name }

// Current returns the most recently started activity.
func (a *Application) Current() *MainActivity {
	if len(a.Activities) == 0 {
		return nil
	}
	return a.Activities[len(a.Activities)-1]
}

// MainActivity is a screen owned by the host's main loop.
type MainActivity struct {
	Title   string
	Items   []string
	Scores  map[string]int
	Vector  [3]float64
	Visible bool
	owner   *loop.Loop
}

// NewMainActivity returns an activity not bound to any loop.
func NewMainActivity(title string) *MainActivity {
	return &MainActivity{Title: title, Scores: map[string]int{}}
}

func (a *MainActivity) Executor() introspect.Executor {
	if a.owner == nil {
		return nil
	}
	return a.owner
}

func (a *MainActivity) SetTitle(title string) { a.Title = title }

// Add appends item and returns the new item count.
func (a *MainActivity) Add(item string) int {
	a.Items = append(a.Items, item)
	return len(a.Items)
}

func (a *MainActivity) Score(name string) int { return a.Scores[name] }

func (a *MainActivity) Norm() float64 {
	var sum float64
	for _, x := range a.Vector {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func (a *MainActivity) String() string {
	return fmt.Sprintf("%s [%s]", a.Title, strings.Join(a.Items, ", "))
}

func registerDemoTypes(c *catalog.Catalog) {
	c.MustRegister(reflect.TypeOf(Application{}), catalog.Named("demo.Application"),
		catalog.WithNested("MainActivity", reflect.TypeOf(MainActivity{})))
	c.MustRegister(reflect.TypeOf(MainActivity{}), catalog.Named("demo.MainActivity"),
		catalog.WithConstructor("NewMainActivity", NewMainActivity),
		catalog.WithMethod("Add", func(a *MainActivity, n int) int {
			return a.Add(fmt.Sprint(n))
		}),
	)
}

// newDemoApplication builds the host's object graph, owned by owner.
func newDemoApplication(owner *loop.Loop) *Application {
	activity := &MainActivity{
		Title:  "Main",
		Items:  []string{"alpha", "beta", "gamma"},
		Scores: map[string]int{"alice": 3, "bob": 5},
		Vector: [3]float64{1, 2, 2},
		owner:  owner,
	}
	return &Application{
		Name:       "fino demo",
		Activities: []*MainActivity{activity},
		Settings:   map[string]string{"theme": "dark"},
	}
}
