package client

import (
	"context"

	finov1 "github.com/sysdream/fino/api/finov1"
)

func values(res *finov1.StringsResponse, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	return res.Values, nil
}

func handles(res *finov1.HandlesResponse, err error) ([]int, error) {
	if err != nil {
		return nil, err
	}
	return res.Handles, nil
}

func handle(res *finov1.HandleResponse, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	return res.Handle, nil
}

func text(res *finov1.StringResponse, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return res.Value, nil
}

// ListRoots describes every handle as "text:typeName".
func (c *Client) ListRoots(ctx context.Context) ([]string, error) {
	return values(call[finov1.Empty, finov1.StringsResponse](ctx, c, finov1.ListRootsProcedure,
		&finov1.Empty{}))
}

// FilterRoots returns the handles whose value is an instance of typeName.
func (c *Client) FilterRoots(ctx context.Context, typeName string) ([]int, error) {
	return handles(call[finov1.TypeNameRequest, finov1.HandlesResponse](ctx, c, finov1.FilterRootsProcedure,
		&finov1.TypeNameRequest{TypeName: typeName}))
}

func (c *Client) ListFields(ctx context.Context, ref finov1.Ref) ([]string, error) {
	return values(call[finov1.RefRequest, finov1.StringsResponse](ctx, c, finov1.ListFieldsProcedure,
		&finov1.RefRequest{Target: ref}))
}

func (c *Client) ListMethods(ctx context.Context, ref finov1.Ref) ([]string, error) {
	return values(call[finov1.RefRequest, finov1.StringsResponse](ctx, c, finov1.ListMethodsProcedure,
		&finov1.RefRequest{Target: ref}))
}

func (c *Client) ListNestedTypes(ctx context.Context, ref finov1.Ref) ([]string, error) {
	return values(call[finov1.RefRequest, finov1.StringsResponse](ctx, c, finov1.ListNestedTypesProcedure,
		&finov1.RefRequest{Target: ref}))
}

func (c *Client) ListConstructors(ctx context.Context, typeName string) ([]string, error) {
	return values(call[finov1.TypeNameRequest, finov1.StringsResponse](ctx, c, finov1.ListConstructorsProcedure,
		&finov1.TypeNameRequest{TypeName: typeName}))
}

// ListConstructorsAt lists the constructors of the type denoted by the
// value at ref (a type name string).
func (c *Client) ListConstructorsAt(ctx context.Context, ref finov1.Ref) ([]string, error) {
	return values(call[finov1.RefRequest, finov1.StringsResponse](ctx, c, finov1.ListConstructorsAtProcedure,
		&finov1.RefRequest{Target: ref}))
}

func (c *Client) ResolveTypeName(ctx context.Context, ref finov1.Ref) (string, error) {
	return text(call[finov1.RefRequest, finov1.StringResponse](ctx, c, finov1.ResolveTypeNameProcedure,
		&finov1.RefRequest{Target: ref}))
}

func (c *Client) AllAncestorTypeNames(ctx context.Context, ref finov1.Ref) ([]string, error) {
	return values(call[finov1.RefRequest, finov1.StringsResponse](ctx, c, finov1.AllAncestorTypeNamesProcedure,
		&finov1.RefRequest{Target: ref}))
}

func (c *Client) MethodName(ctx context.Context, ref finov1.Ref, method int) (string, error) {
	return text(call[finov1.IndexRequest, finov1.StringResponse](ctx, c, finov1.MethodNameProcedure,
		&finov1.IndexRequest{Target: ref, Index: method}))
}

func (c *Client) MethodParams(ctx context.Context, ref finov1.Ref, method int) ([]string, error) {
	return values(call[finov1.IndexRequest, finov1.StringsResponse](ctx, c, finov1.MethodParamsProcedure,
		&finov1.IndexRequest{Target: ref, Index: method}))
}

// ReadPath renders the value at ref followed by the fields leading to it.
func (c *Client) ReadPath(ctx context.Context, ref finov1.Ref) (string, error) {
	return text(call[finov1.RefRequest, finov1.StringResponse](ctx, c, finov1.ReadPathProcedure,
		&finov1.RefRequest{Target: ref}))
}

func (c *Client) ReadValue(ctx context.Context, ref finov1.Ref) (string, error) {
	return text(call[finov1.RefRequest, finov1.StringResponse](ctx, c, finov1.ReadValueProcedure,
		&finov1.RefRequest{Target: ref}))
}

// WritePath stores handle value (nil when negative) into the field at ref.
func (c *Client) WritePath(ctx context.Context, ref finov1.Ref, value int) error {
	_, err := call[finov1.WriteRequest, finov1.Empty](ctx, c, finov1.WritePathProcedure,
		&finov1.WriteRequest{Target: ref, Value: value})
	return err
}

func (c *Client) Invoke(ctx context.Context, ref finov1.Ref, method int, args ...int) (int, error) {
	return handle(call[finov1.InvokeRequest, finov1.HandleResponse](ctx, c, finov1.InvokeProcedure,
		&finov1.InvokeRequest{Target: ref, Method: method, Args: args}))
}

func (c *Client) InvokeByName(ctx context.Context, ref finov1.Ref, name string, args ...int) (int, error) {
	return handle(call[finov1.InvokeByNameRequest, finov1.HandleResponse](ctx, c, finov1.InvokeByNameProcedure,
		&finov1.InvokeByNameRequest{Target: ref, Name: name, Args: args}))
}

func (c *Client) Construct(ctx context.Context, typeName string, args ...int) (int, error) {
	return handle(call[finov1.ConstructRequest, finov1.HandleResponse](ctx, c, finov1.ConstructProcedure,
		&finov1.ConstructRequest{TypeName: typeName, Args: args}))
}

func (c *Client) ConstructAt(ctx context.Context, ref finov1.Ref, args ...int) (int, error) {
	return handle(call[finov1.ConstructAtRequest, finov1.HandleResponse](ctx, c, finov1.ConstructAtProcedure,
		&finov1.ConstructAtRequest{Target: ref, Args: args}))
}

func (c *Client) IsSequence(ctx context.Context, ref finov1.Ref) (bool, error) {
	res, err := call[finov1.RefRequest, finov1.BoolResponse](ctx, c, finov1.IsSequenceProcedure,
		&finov1.RefRequest{Target: ref})
	if err != nil {
		return false, err
	}
	return res.Value, nil
}

func (c *Client) Enumerate(ctx context.Context, ref finov1.Ref) ([]string, error) {
	return values(call[finov1.RefRequest, finov1.StringsResponse](ctx, c, finov1.EnumerateProcedure,
		&finov1.RefRequest{Target: ref}))
}

func (c *Client) ItemAt(ctx context.Context, ref finov1.Ref, index int) (int, error) {
	return handle(call[finov1.IndexRequest, finov1.HandleResponse](ctx, c, finov1.ItemAtProcedure,
		&finov1.IndexRequest{Target: ref, Index: index}))
}

func (c *Client) pushLiteral(ctx context.Context, req *finov1.LiteralRequest) (int, error) {
	return handle(call[finov1.LiteralRequest, finov1.HandleResponse](ctx, c, finov1.PushLiteralProcedure, req))
}

func (c *Client) PushString(ctx context.Context, v string) (int, error) {
	return c.pushLiteral(ctx, &finov1.LiteralRequest{String: &v})
}

func (c *Client) PushInt(ctx context.Context, v int64) (int, error) {
	return c.pushLiteral(ctx, &finov1.LiteralRequest{Int: &v})
}

func (c *Client) PushBool(ctx context.Context, v bool) (int, error) {
	return c.pushLiteral(ctx, &finov1.LiteralRequest{Bool: &v})
}

func (c *Client) PushResolved(ctx context.Context, ref finov1.Ref) (int, error) {
	return handle(call[finov1.RefRequest, finov1.HandleResponse](ctx, c, finov1.PushResolvedProcedure,
		&finov1.RefRequest{Target: ref}))
}

func (c *Client) ListMacros(ctx context.Context) ([]string, error) {
	return values(call[finov1.Empty, finov1.StringsResponse](ctx, c, finov1.ListMacrosProcedure,
		&finov1.Empty{}))
}

func (c *Client) FilterMacros(ctx context.Context, ref finov1.Ref) ([]int, error) {
	return handles(call[finov1.RefRequest, finov1.HandlesResponse](ctx, c, finov1.FilterMacrosProcedure,
		&finov1.RefRequest{Target: ref}))
}

func (c *Client) MacroParams(ctx context.Context, index int) ([]string, error) {
	return values(call[finov1.MacroRequest, finov1.StringsResponse](ctx, c, finov1.MacroParamsProcedure,
		&finov1.MacroRequest{Index: index}))
}

func (c *Client) MacroDescription(ctx context.Context, index int) (string, error) {
	return text(call[finov1.MacroRequest, finov1.StringResponse](ctx, c, finov1.MacroDescriptionProcedure,
		&finov1.MacroRequest{Index: index}))
}

func (c *Client) RunMacro(ctx context.Context, index int, ref finov1.Ref, args ...int) (int, error) {
	return handle(call[finov1.RunMacroRequest, finov1.HandleResponse](ctx, c, finov1.RunMacroProcedure,
		&finov1.RunMacroRequest{Index: index, Target: ref, Args: args}))
}

// LoadMacro sends code to be loaded as macro name and returns its index,
// or -1 when the server could not load it.
func (c *Client) LoadMacro(ctx context.Context, name string, code []byte) (int, error) {
	return handle(call[finov1.LoadMacroRequest, finov1.HandleResponse](ctx, c, finov1.LoadMacroProcedure,
		&finov1.LoadMacroRequest{Name: name, Code: code}))
}
