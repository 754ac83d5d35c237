package client_test

import (
	"context"
	"net/http/httptest"
	"reflect"
	"testing"

	"connectrpc.com/connect"

	finov1 "github.com/sysdream/fino/api/finov1"
	"github.com/sysdream/fino/catalog"
	"github.com/sysdream/fino/client"
	"github.com/sysdream/fino/inspect"
	"github.com/sysdream/fino/server"
)

type Counter struct {
	Name  string
	Steps []int
	value int
}

func (c *Counter) Add(n int) int {
	c.value += n
	return c.value
}

func (c *Counter) String() string { return c.Name }

var testCatalog = func() *catalog.Catalog {
	c := catalog.New()
	c.MustRegister(reflect.TypeOf(Counter{}), catalog.Named("demo.Counter"),
		catalog.WithConstructor("NewCounter", func(name string) *Counter { return &Counter{Name: name} }))
	return c
}()

func newTestServer(t *testing.T) (*Counter, *httptest.Server) {
	t.Helper()
	svc := inspect.New(inspect.WithCatalog(testCatalog))
	t.Cleanup(svc.Close)
	counter := &Counter{Name: "clicks", Steps: []int{1, 2, 3}}
	if _, err := svc.Attach(counter); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	ts := httptest.NewServer(server.New(svc).Handler())
	t.Cleanup(ts.Close)
	return counter, ts
}

// transports returns one client per way of reaching ts.
func transports(t *testing.T, ts *httptest.Server) map[string]*client.Client {
	t.Helper()
	grpcClient, err := client.DialGRPC(ts.Listener.Addr().String())
	if err != nil {
		t.Fatalf("DialGRPC: %v", err)
	}
	t.Cleanup(func() { grpcClient.Close() })
	return map[string]*client.Client{
		"connect-cbor": client.New(ts.URL),
		"connect-json": client.New(ts.URL, client.WithCodec(finov1.JSONCodec{})),
		"connect-grpc": client.New(ts.URL, client.WithGRPCProtocol()),
		"grpc-go":      grpcClient,
	}
}

func TestRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()
	for name, c := range transports(t, ts) {
		t.Run(name, func(t *testing.T) {
			roots, err := c.ListRoots(ctx)
			if err != nil {
				t.Fatalf("ListRoots: %v", err)
			}
			if len(roots) == 0 || roots[0] != "clicks:*demo.Counter" {
				t.Errorf("ListRoots = %v", roots)
			}

			fields, err := c.ListFields(ctx, client.At(0))
			if err != nil {
				t.Fatalf("ListFields: %v", err)
			}
			if len(fields) != 3 {
				t.Errorf("ListFields = %v", fields)
			}

			two, err := c.PushInt(ctx, 2)
			if err != nil {
				t.Fatalf("PushInt: %v", err)
			}
			h, err := c.InvokeByName(ctx, client.At(0), "Add", two)
			if err != nil {
				t.Fatalf("InvokeByName: %v", err)
			}
			if h < 0 {
				t.Fatalf("InvokeByName = %d", h)
			}
			if _, err := c.ReadValue(ctx, client.At(h)); err != nil {
				t.Fatalf("ReadValue: %v", err)
			}

			seq, err := c.IsSequence(ctx, client.At(0, 1))
			if err != nil {
				t.Fatalf("IsSequence: %v", err)
			}
			if !seq {
				t.Error("Steps should be a sequence")
			}
			items, err := c.Enumerate(ctx, client.At(0, 1))
			if err != nil {
				t.Fatalf("Enumerate: %v", err)
			}
			if !reflect.DeepEqual(items, []string{"1:int", "2:int", "3:int"}) {
				t.Errorf("Enumerate = %v", items)
			}
		})
	}
}

func TestWriteAndConstruct(t *testing.T) {
	counter, ts := newTestServer(t)
	c := client.New(ts.URL)
	ctx := context.Background()

	name, err := c.PushString(ctx, "taps")
	if err != nil {
		t.Fatalf("PushString: %v", err)
	}
	if err := c.WritePath(ctx, client.At(0, 0), name); err != nil {
		t.Fatalf("WritePath: %v", err)
	}
	if counter.Name != "taps" {
		t.Errorf("Name = %q, want taps", counter.Name)
	}

	ctors, err := c.ListConstructors(ctx, "demo.Counter")
	if err != nil {
		t.Fatalf("ListConstructors: %v", err)
	}
	if len(ctors) != 2 {
		t.Errorf("ListConstructors = %v, want NewCounter and new", ctors)
	}
	h, err := c.Construct(ctx, "demo.Counter", name)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	got, err := c.ResolveTypeName(ctx, client.At(h))
	if err != nil {
		t.Fatalf("ResolveTypeName: %v", err)
	}
	if got != "*demo.Counter" {
		t.Errorf("ResolveTypeName = %q", got)
	}
	if h, _ := c.Construct(ctx, "no.Such"); h != inspect.ConstructFault {
		t.Errorf("Construct(unknown) = %d, want %d", h, inspect.ConstructFault)
	}
}

func TestCode(t *testing.T) {
	_, ts := newTestServer(t)
	ctx := context.Background()
	for name, c := range transports(t, ts) {
		_, err := c.ListMethods(ctx, client.At(99))
		if got := client.Code(err); got != connect.CodeOutOfRange {
			t.Errorf("%s: Code = %v, want out_of_range", name, got)
		}
	}
	if client.Code(nil) != 0 {
		t.Error("Code(nil) should be zero")
	}
}
