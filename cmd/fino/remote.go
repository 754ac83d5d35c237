package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	finov1 "github.com/sysdream/fino/api/finov1"
	"github.com/sysdream/fino/client"
	"github.com/sysdream/fino/config"
)

type command struct {
	name  string
	args  string
	help  string
	nargs int // minimum number of arguments
	run   func(ctx context.Context, c *client.Client, args []string) error
}

var commands = []command{
	{"roots", "", "List root handles", 0, func(ctx context.Context, c *client.Client, _ []string) error {
		return printIndexed(c.ListRoots(ctx))
	}},
	{"filter", "TYPE", "Handles of roots that are instances of TYPE", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return printInts(c.FilterRoots(ctx, args[0]))
	}},
	{"fields", "REF", "List fields", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error { return printIndexed(c.ListFields(ctx, ref)) })
	}},
	{"methods", "REF", "List methods", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error { return printIndexed(c.ListMethods(ctx, ref)) })
	}},
	{"nested", "REF", "List nested types", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error { return printIndexed(c.ListNestedTypes(ctx, ref)) })
	}},
	{"ctors", "TYPE", "List constructors of TYPE", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return printIndexed(c.ListConstructors(ctx, args[0]))
	}},
	{"type", "REF", "Runtime type name", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error { return printText(c.ResolveTypeName(ctx, ref)) })
	}},
	{"ancestors", "REF", "Type names the value is an instance of", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error { return printIndexed(c.AllAncestorTypeNames(ctx, ref)) })
	}},
	{"params", "REF METHOD", "Parameter names of a method", 2, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error {
			i, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			return printIndexed(c.MethodParams(ctx, ref, i))
		})
	}},
	{"method", "REF METHOD", "Name of a method", 2, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error {
			i, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			return printText(c.MethodName(ctx, ref, i))
		})
	}},
	{"ctors-at", "REF", "List constructors of the type named by the value at REF", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error { return printIndexed(c.ListConstructorsAt(ctx, ref)) })
	}},
	{"is-seq", "REF", "Whether the value is a sequence", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error {
			ok, err := c.IsSequence(ctx, ref)
			if err != nil {
				return err
			}
			fmt.Println(ok)
			return nil
		})
	}},
	{"ctor-at", "REF [HANDLE...]", "Construct a value of the type named by the value at REF", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error {
			handles, err := atois(args[1:])
			if err != nil {
				return err
			}
			return printHandle(c.ConstructAt(ctx, ref, handles...))
		})
	}},
	{"read", "REF", "Value and the fields leading to it", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error { return printText(c.ReadPath(ctx, ref)) })
	}},
	{"value", "REF", "Value as text", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error { return printText(c.ReadValue(ctx, ref)) })
	}},
	{"write", "REF HANDLE", "Store HANDLE (nil if negative) into the field REF", 2, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error {
			h, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			return c.WritePath(ctx, ref, h)
		})
	}},
	{"invoke", "REF METHOD [HANDLE...]", "Call method by index", 2, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error {
			ints, err := atois(args[1:])
			if err != nil {
				return err
			}
			return printHandle(c.Invoke(ctx, ref, ints[0], ints[1:]...))
		})
	}},
	{"call", "REF NAME [HANDLE...]", "Call method by name", 2, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error {
			handles, err := atois(args[2:])
			if err != nil {
				return err
			}
			return printHandle(c.InvokeByName(ctx, ref, args[1], handles...))
		})
	}},
	{"new", "TYPE [HANDLE...]", "Construct a value", 1, func(ctx context.Context, c *client.Client, args []string) error {
		handles, err := atois(args[1:])
		if err != nil {
			return err
		}
		return printHandle(c.Construct(ctx, args[0], handles...))
	}},
	{"items", "REF", "Enumerate a sequence", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error { return printIndexed(c.Enumerate(ctx, ref)) })
	}},
	{"item", "REF INDEX", "Push an element of a sequence", 2, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error {
			i, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			return printHandle(c.ItemAt(ctx, ref, i))
		})
	}},
	{"push", "REF", "Push the value at REF", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return withRef(args[0], func(ref finov1.Ref) error { return printHandle(c.PushResolved(ctx, ref)) })
	}},
	{"string", "TEXT", "Push a string", 1, func(ctx context.Context, c *client.Client, args []string) error {
		return printHandle(c.PushString(ctx, args[0]))
	}},
	{"int", "N", "Push an integer", 1, func(ctx context.Context, c *client.Client, args []string) error {
		n, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		return printHandle(c.PushInt(ctx, n))
	}},
	{"bool", "true|false", "Push a boolean", 1, func(ctx context.Context, c *client.Client, args []string) error {
		b, err := strconv.ParseBool(args[0])
		if err != nil {
			return err
		}
		return printHandle(c.PushBool(ctx, b))
	}},
	{"macros", "[REF]", "List macros, or those applicable to REF", 0, func(ctx context.Context, c *client.Client, args []string) error {
		if len(args) == 0 {
			return printIndexed(c.ListMacros(ctx))
		}
		return withRef(args[0], func(ref finov1.Ref) error { return printInts(c.FilterMacros(ctx, ref)) })
	}},
	{"macro", "INDEX", "Describe a macro", 1, func(ctx context.Context, c *client.Client, args []string) error {
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		desc, err := c.MacroDescription(ctx, i)
		if err != nil {
			return err
		}
		fmt.Println(desc)
		return printIndexed(c.MacroParams(ctx, i))
	}},
	{"run-macro", "INDEX REF [HANDLE...]", "Run a macro on REF", 2, func(ctx context.Context, c *client.Client, args []string) error {
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		return withRef(args[1], func(ref finov1.Ref) error {
			handles, err := atois(args[2:])
			if err != nil {
				return err
			}
			return printHandle(c.RunMacro(ctx, i, ref, handles...))
		})
	}},
	{"load-macro", "NAME FILE", "Load a CUE script or Go plugin as a macro", 2, func(ctx context.Context, c *client.Client, args []string) error {
		code, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return printHandle(c.LoadMacro(ctx, args[0], code))
	}},
}

// runRemote runs the named command against the configured server.
func runRemote(cfg *config.Config, useGRPC bool, name string, args []string) error {
	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		return fmt.Errorf("unknown command %q", name)
	}
	if len(args) < cmd.nargs {
		return fmt.Errorf("usage: fino %s %s", cmd.name, cmd.args)
	}

	codec, err := cfg.Codec()
	if err != nil {
		return err
	}
	var c *client.Client
	if useGRPC {
		c, err = client.DialGRPC(cfg.Server.Addr, client.WithCodec(codec))
		if err != nil {
			return err
		}
		defer c.Close()
	} else {
		c = client.New("http://"+cfg.Server.Addr, client.WithCodec(codec))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	log.Debugf("running %s %v against %s", name, args, cfg.Server.Addr)
	return cmd.run(ctx, c, args)
}

// parseRef parses "H" or "H.s1.s2...".
func parseRef(s string) (finov1.Ref, error) {
	ints, err := atois(strings.Split(s, "."))
	if err != nil {
		return finov1.Ref{}, fmt.Errorf("bad reference %q: %w", s, err)
	}
	return client.At(ints[0], ints[1:]...), nil
}

func withRef(s string, fn func(finov1.Ref) error) error {
	ref, err := parseRef(s)
	if err != nil {
		return err
	}
	return fn(ref)
}

func atois(ss []string) ([]int, error) {
	out := make([]int, len(ss))
	for i, s := range ss {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func printIndexed(values []string, err error) error {
	if err != nil {
		return err
	}
	for i, v := range values {
		fmt.Printf("%3d  %s\n", i, v)
	}
	return nil
}

func printInts(values []int, err error) error {
	if err != nil {
		return err
	}
	for _, v := range values {
		fmt.Println(v)
	}
	return nil
}

func printText(v string, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

func printHandle(h int, err error) error {
	if err != nil {
		return err
	}
	fmt.Println(h)
	return nil
}
