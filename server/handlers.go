package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"

	finov1 "github.com/sysdream/fino/api/finov1"
	"github.com/sysdream/fino/inspect"
	"github.com/sysdream/fino/introspect"
	"github.com/sysdream/fino/loop"
)

// unary mounts fn as the Connect/gRPC unary procedure on mux.
func unary[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *Req) (*Res, error),
	opts ...connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(
		procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			res, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, connectError(err)
			}
			return connect.NewResponse(res), nil
		},
		opts...,
	))
}

// connectError maps service errors onto connect codes.
func connectError(err error) error {
	var cerr *connect.Error
	switch {
	case errors.As(err, &cerr):
		return cerr
	case errors.Is(err, inspect.ErrInvalidHandle):
		return connect.NewError(connect.CodeOutOfRange, err)
	case errors.Is(err, introspect.ErrArgumentShape):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, loop.ErrStopped):
		return connect.NewError(connect.CodeUnavailable, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// logRequests logs every call with its duration.
func logRequests() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)
			if err != nil {
				log.Warningf("%s (%s) failed after %s: %v", req.Spec().Procedure, req.Peer().Protocol, time.Since(start), err)
			} else {
				log.Debugf("%s (%s) took %s", req.Spec().Procedure, req.Peer().Protocol, time.Since(start))
			}
			return res, err
		}
	}
}

func stringsResponse(v []string, err error) (*finov1.StringsResponse, error) {
	if err != nil {
		return nil, err
	}
	return &finov1.StringsResponse{Values: v}, nil
}

func handlesResponse(v []int, err error) (*finov1.HandlesResponse, error) {
	if err != nil {
		return nil, err
	}
	return &finov1.HandlesResponse{Handles: v}, nil
}

func handleResponse(v int, err error) (*finov1.HandleResponse, error) {
	if err != nil {
		return nil, err
	}
	return &finov1.HandleResponse{Handle: v}, nil
}

func textResponse(v string, err error) (*finov1.StringResponse, error) {
	if err != nil {
		return nil, err
	}
	return &finov1.StringResponse{Value: v}, nil
}

func boolResponse(v bool, err error) (*finov1.BoolResponse, error) {
	if err != nil {
		return nil, err
	}
	return &finov1.BoolResponse{Value: v}, nil
}

func emptyResponse(err error) (*finov1.Empty, error) {
	if err != nil {
		return nil, err
	}
	return &finov1.Empty{}, nil
}

// register mounts every inspection operation of svc on mux.
func register(mux *http.ServeMux, svc *inspect.Service, opts ...connect.HandlerOption) {
	unary(mux, finov1.ListRootsProcedure, func(_ context.Context, _ *finov1.Empty) (*finov1.StringsResponse, error) {
		return stringsResponse(svc.ListRoots())
	}, opts...)
	unary(mux, finov1.FilterRootsProcedure, func(_ context.Context, req *finov1.TypeNameRequest) (*finov1.HandlesResponse, error) {
		return handlesResponse(svc.FilterRoots(req.TypeName))
	}, opts...)

	unary(mux, finov1.ListFieldsProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.StringsResponse, error) {
		return stringsResponse(svc.ListFields(req.Target.Handle, req.Target.Path))
	}, opts...)
	unary(mux, finov1.ListMethodsProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.StringsResponse, error) {
		return stringsResponse(svc.ListMethods(req.Target.Handle, req.Target.Path))
	}, opts...)
	unary(mux, finov1.ListNestedTypesProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.StringsResponse, error) {
		return stringsResponse(svc.ListNestedTypes(req.Target.Handle, req.Target.Path))
	}, opts...)
	unary(mux, finov1.ListConstructorsProcedure, func(_ context.Context, req *finov1.TypeNameRequest) (*finov1.StringsResponse, error) {
		return stringsResponse(svc.ListConstructors(req.TypeName))
	}, opts...)
	unary(mux, finov1.ListConstructorsAtProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.StringsResponse, error) {
		return stringsResponse(svc.ListConstructorsAt(req.Target.Handle, req.Target.Path))
	}, opts...)
	unary(mux, finov1.ResolveTypeNameProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.StringResponse, error) {
		return textResponse(svc.ResolveTypeName(req.Target.Handle, req.Target.Path))
	}, opts...)
	unary(mux, finov1.AllAncestorTypeNamesProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.StringsResponse, error) {
		return stringsResponse(svc.AllAncestorTypeNames(req.Target.Handle, req.Target.Path))
	}, opts...)
	unary(mux, finov1.MethodNameProcedure, func(_ context.Context, req *finov1.IndexRequest) (*finov1.StringResponse, error) {
		return textResponse(svc.MethodName(req.Target.Handle, req.Target.Path, req.Index))
	}, opts...)
	unary(mux, finov1.MethodParamsProcedure, func(_ context.Context, req *finov1.IndexRequest) (*finov1.StringsResponse, error) {
		return stringsResponse(svc.MethodParams(req.Target.Handle, req.Target.Path, req.Index))
	}, opts...)

	unary(mux, finov1.ReadPathProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.StringResponse, error) {
		return textResponse(svc.ReadPath(req.Target.Handle, req.Target.Path))
	}, opts...)
	unary(mux, finov1.ReadValueProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.StringResponse, error) {
		return textResponse(svc.ReadValue(req.Target.Handle, req.Target.Path))
	}, opts...)
	unary(mux, finov1.WritePathProcedure, func(_ context.Context, req *finov1.WriteRequest) (*finov1.Empty, error) {
		return emptyResponse(svc.WritePath(req.Target.Handle, req.Target.Path, req.Value))
	}, opts...)

	unary(mux, finov1.InvokeProcedure, func(_ context.Context, req *finov1.InvokeRequest) (*finov1.HandleResponse, error) {
		return handleResponse(svc.Invoke(req.Target.Handle, req.Target.Path, req.Method, req.Args))
	}, opts...)
	unary(mux, finov1.InvokeByNameProcedure, func(_ context.Context, req *finov1.InvokeByNameRequest) (*finov1.HandleResponse, error) {
		return handleResponse(svc.InvokeByName(req.Target.Handle, req.Target.Path, req.Name, req.Args))
	}, opts...)
	unary(mux, finov1.ConstructProcedure, func(_ context.Context, req *finov1.ConstructRequest) (*finov1.HandleResponse, error) {
		return handleResponse(svc.Construct(req.TypeName, req.Args))
	}, opts...)
	unary(mux, finov1.ConstructAtProcedure, func(_ context.Context, req *finov1.ConstructAtRequest) (*finov1.HandleResponse, error) {
		return handleResponse(svc.ConstructAt(req.Target.Handle, req.Target.Path, req.Args))
	}, opts...)

	unary(mux, finov1.IsSequenceProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.BoolResponse, error) {
		return boolResponse(svc.IsSequence(req.Target.Handle, req.Target.Path))
	}, opts...)
	unary(mux, finov1.EnumerateProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.StringsResponse, error) {
		return stringsResponse(svc.Enumerate(req.Target.Handle, req.Target.Path))
	}, opts...)
	unary(mux, finov1.ItemAtProcedure, func(_ context.Context, req *finov1.IndexRequest) (*finov1.HandleResponse, error) {
		return handleResponse(svc.ItemAt(req.Target.Handle, req.Target.Path, req.Index))
	}, opts...)

	unary(mux, finov1.PushLiteralProcedure, func(_ context.Context, req *finov1.LiteralRequest) (*finov1.HandleResponse, error) {
		switch {
		case req.String != nil && req.Int == nil && req.Bool == nil:
			return handleResponse(svc.PushString(*req.String))
		case req.Int != nil && req.String == nil && req.Bool == nil:
			return handleResponse(svc.PushInt(*req.Int))
		case req.Bool != nil && req.String == nil && req.Int == nil:
			return handleResponse(svc.PushBool(*req.Bool))
		}
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("exactly one of string, int or bool is required"))
	}, opts...)
	unary(mux, finov1.PushResolvedProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.HandleResponse, error) {
		return handleResponse(svc.PushResolved(req.Target.Handle, req.Target.Path))
	}, opts...)

	unary(mux, finov1.ListMacrosProcedure, func(_ context.Context, _ *finov1.Empty) (*finov1.StringsResponse, error) {
		return stringsResponse(svc.ListMacros())
	}, opts...)
	unary(mux, finov1.FilterMacrosProcedure, func(_ context.Context, req *finov1.RefRequest) (*finov1.HandlesResponse, error) {
		return handlesResponse(svc.FilterMacros(req.Target.Handle, req.Target.Path))
	}, opts...)
	unary(mux, finov1.MacroParamsProcedure, func(_ context.Context, req *finov1.MacroRequest) (*finov1.StringsResponse, error) {
		return stringsResponse(svc.MacroParams(req.Index))
	}, opts...)
	unary(mux, finov1.MacroDescriptionProcedure, func(_ context.Context, req *finov1.MacroRequest) (*finov1.StringResponse, error) {
		return textResponse(svc.MacroDescription(req.Index))
	}, opts...)
	unary(mux, finov1.RunMacroProcedure, func(_ context.Context, req *finov1.RunMacroRequest) (*finov1.HandleResponse, error) {
		return handleResponse(svc.RunMacro(req.Index, req.Target.Handle, req.Target.Path, req.Args))
	}, opts...)
	unary(mux, finov1.LoadMacroProcedure, func(_ context.Context, req *finov1.LoadMacroRequest) (*finov1.HandleResponse, error) {
		if req.Name == "" {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
		}
		return handleResponse(svc.LoadMacro(req.Name, req.Code))
	}, opts...)
}
