package server

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	finov1 "github.com/sysdream/fino/api/finov1"
)

func h2cClient() *http.Client {
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Protocols and codecs
// ---------------------------------------------------------------------------

func TestConnect_CBOR(t *testing.T) {
	_, ts := newTestServer(t)
	c := connect.NewClient[finov1.Empty, finov1.StringsResponse](
		ts.Client(), ts.URL+finov1.ListRootsProcedure, connect.WithCodec(finov1.CBORCodec{}))

	res, err := c.CallUnary(context.Background(), connect.NewRequest(&finov1.Empty{}))
	if err != nil {
		t.Fatalf("ListRoots: %v", err)
	}
	want := []string{"note first:*demo.Note"}
	if !reflect.DeepEqual(res.Msg.Values, want) {
		t.Errorf("ListRoots = %v, want %v", res.Msg.Values, want)
	}
}

func TestConnect_JSON(t *testing.T) {
	_, ts := newTestServer(t)
	body := strings.NewReader(`{"target":{"handle":0,"path":[1]}}`)
	resp, err := http.Post(ts.URL+finov1.ReadPathProcedure, "application/json", body)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.TrimSpace(string(raw)); got != `{"value":"note second:Next"}` {
		t.Errorf("body = %s", got)
	}
}

func TestConnect_GRPCProtocol(t *testing.T) {
	_, ts := newTestServer(t)
	c := connect.NewClient[finov1.RefRequest, finov1.StringsResponse](
		h2cClient(), ts.URL+finov1.ListFieldsProcedure,
		connect.WithCodec(finov1.CBORCodec{}), connect.WithGRPC())

	res, err := c.CallUnary(context.Background(), connect.NewRequest(&finov1.RefRequest{}))
	if err != nil {
		t.Fatalf("ListFields: %v", err)
	}
	want := []string{"Text:exported string", "Next:exported *demo.Note"}
	if !reflect.DeepEqual(res.Msg.Values, want) {
		t.Errorf("ListFields = %v, want %v", res.Msg.Values, want)
	}
}

func TestGRPCGo(t *testing.T) {
	_, ts := newTestServer(t)
	conn, err := grpc.NewClient("passthrough:///"+ts.Listener.Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(finov1.CBORCodec{})))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer conn.Close()

	var res finov1.HandleResponse
	err = conn.Invoke(context.Background(), finov1.InvokeByNameProcedure,
		&finov1.InvokeByNameRequest{Name: "Upper"}, &res)
	if err != nil {
		t.Fatalf("InvokeByName: %v", err)
	}
	var text finov1.StringResponse
	err = conn.Invoke(context.Background(), finov1.ReadValueProcedure,
		&finov1.RefRequest{Target: finov1.Ref{Handle: res.Handle}}, &text)
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if text.Value != "FIRST" {
		t.Errorf("Upper = %q, want FIRST", text.Value)
	}

	err = conn.Invoke(context.Background(), finov1.ListFieldsProcedure,
		&finov1.RefRequest{Target: finov1.Ref{Handle: 42}}, &finov1.StringsResponse{})
	if status.Code(err) != codes.OutOfRange {
		t.Errorf("invalid handle: code = %v, want OutOfRange", status.Code(err))
	}
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func TestConnectError(t *testing.T) {
	passthrough := connect.NewError(connect.CodeNotFound, errors.New("x"))
	if got := connectError(passthrough); got != passthrough {
		t.Errorf("connect errors should pass through, got %v", got)
	}
	if got := connect.CodeOf(connectError(errors.New("boom"))); got != connect.CodeInternal {
		t.Errorf("code = %v, want internal", got)
	}
}

func TestErrorCodes(t *testing.T) {
	svc, ts := newTestServer(t)
	ctx := context.Background()
	num, err := svc.PushInt(3)
	if err != nil {
		t.Fatalf("PushInt: %v", err)
	}

	fields := connect.NewClient[finov1.RefRequest, finov1.StringsResponse](
		ts.Client(), ts.URL+finov1.ListFieldsProcedure, connect.WithCodec(finov1.CBORCodec{}))
	_, err = fields.CallUnary(ctx, connect.NewRequest(&finov1.RefRequest{Target: finov1.Ref{Handle: 9}}))
	if connect.CodeOf(err) != connect.CodeOutOfRange {
		t.Errorf("invalid handle: code = %v, want out_of_range", connect.CodeOf(err))
	}

	// Method 0 of *Note is Rename(string).
	invoke := connect.NewClient[finov1.InvokeRequest, finov1.HandleResponse](
		ts.Client(), ts.URL+finov1.InvokeProcedure, connect.WithCodec(finov1.CBORCodec{}))
	_, err = invoke.CallUnary(ctx, connect.NewRequest(&finov1.InvokeRequest{Method: 0, Args: []int{num}}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("shape mismatch: code = %v, want invalid_argument", connect.CodeOf(err))
	}

	push := connect.NewClient[finov1.LiteralRequest, finov1.HandleResponse](
		ts.Client(), ts.URL+finov1.PushLiteralProcedure, connect.WithCodec(finov1.CBORCodec{}))
	_, err = push.CallUnary(ctx, connect.NewRequest(&finov1.LiteralRequest{}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("empty literal: code = %v, want invalid_argument", connect.CodeOf(err))
	}

	load := connect.NewClient[finov1.LoadMacroRequest, finov1.HandleResponse](
		ts.Client(), ts.URL+finov1.LoadMacroProcedure, connect.WithCodec(finov1.CBORCodec{}))
	_, err = load.CallUnary(ctx, connect.NewRequest(&finov1.LoadMacroRequest{Code: []byte("x")}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("unnamed macro: code = %v, want invalid_argument", connect.CodeOf(err))
	}
}

func TestStoppedService(t *testing.T) {
	svc, ts := newTestServer(t)
	svc.Close()
	c := connect.NewClient[finov1.Empty, finov1.StringsResponse](
		ts.Client(), ts.URL+finov1.ListRootsProcedure, connect.WithCodec(finov1.CBORCodec{}))
	_, err := c.CallUnary(context.Background(), connect.NewRequest(&finov1.Empty{}))
	if connect.CodeOf(err) != connect.CodeUnavailable {
		t.Errorf("code = %v, want unavailable", connect.CodeOf(err))
	}
}
