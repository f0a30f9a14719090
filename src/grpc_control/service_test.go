package grpc_control

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"trader-gateway/src/commands"
	"trader-gateway/src/interfaces"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"
)

type fakeGateway struct {
	mu       sync.Mutex
	sent     []string
	tracked  []string
	closeErr error
	closed   []bool
	answer   bool
}

func (g *fakeGateway) Submit(cmd interfaces.ICommand) error {
	g.mu.Lock()
	g.sent = append(g.sent, strings.TrimSpace(cmd.Encode()))
	answer := g.answer
	g.mu.Unlock()
	if answer {
		cmd.Resolve(models.MCommandResult{Success: true, Message: "answered"})
	}
	return nil
}

func (g *fakeGateway) SubmitOrder(cmd *commands.OrderCommand) error {
	g.mu.Lock()
	g.tracked = append(g.tracked, cmd.Token)
	g.mu.Unlock()
	return g.Submit(cmd)
}

func (g *fakeGateway) Status() models.MDispatcherStatus {
	return models.MDispatcherStatus{Connected: true, State: "Ready", QueueLength: 2}
}

func (g *fakeGateway) Close(force bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = append(g.closed, force)
	if !force {
		return g.closeErr
	}
	return nil
}

func dialControl(t *testing.T, gw *fakeGateway) *ControlClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterControlServer(srv, NewControlService(gw, logger.NewLogger(nil, "TestControl")))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewControlClient(conn)
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func callCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// -----------------------------------------------------------------------------

func TestGetStatus(t *testing.T) {
	client := dialControl(t, &fakeGateway{})

	res, err := client.GetStatus(callCtx(t))
	if err != nil {
		t.Fatal(err)
	}
	m := res.AsMap()
	if m["connected"] != true || m["state"] != "Ready" || m["queueLength"] != float64(2) {
		t.Errorf("status = %v", m)
	}
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name     string
		req      map[string]interface{}
		wantLine string
		wantCode codes.Code
	}{
		{"echo", map[string]interface{}{"command": "ECHO", "state": "on"}, "ECHO ON", codes.OK},
		{"cancel", map[string]interface{}{"command": "CANCEL", "orderId": "ALL"}, "CANCEL ALL", codes.OK},
		{"order", map[string]interface{}{"command": "NEWORDER", "order": map[string]interface{}{
			"kind": "market", "token": "123456", "side": "S", "symbol": "msft", "route": "SMAT", "shares": 100, "tif": "DAY+",
		}}, "NEWORDER 123456 S MSFT SMAT 100 MKT DAY+", codes.OK},
		{"missing command", map[string]interface{}{}, "", codes.InvalidArgument},
		{"unknown verb", map[string]interface{}{"command": "NOPE"}, "", codes.InvalidArgument},
		{"bad login", map[string]interface{}{"command": "LOGIN", "username": "u"}, "", codes.InvalidArgument},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{}
			client := dialControl(t, gw)

			res, err := client.Submit(callCtx(t), mustStruct(t, tc.req))
			if status.Code(err) != tc.wantCode {
				t.Fatalf("code %v, want %v (%v)", status.Code(err), tc.wantCode, err)
			}
			if tc.wantCode != codes.OK {
				return
			}
			if res.AsMap()["success"] != true {
				t.Errorf("response = %v", res.AsMap())
			}
			if len(gw.sent) != 1 || gw.sent[0] != tc.wantLine {
				t.Errorf("sent %v, want %q", gw.sent, tc.wantLine)
			}
		})
	}
}

func TestSubmitOrderIsTracked(t *testing.T) {
	gw := &fakeGateway{}
	client := dialControl(t, gw)

	req := mustStruct(t, map[string]interface{}{"command": "NEWORDER", "order": map[string]interface{}{
		"kind": "limit", "side": "B", "symbol": "AAPL", "route": "SMAT", "shares": 10, "price": 190.25,
	}})
	if _, err := client.Submit(callCtx(t), req); err != nil {
		t.Fatal(err)
	}
	if len(gw.tracked) != 1 || len(gw.tracked[0]) != 6 {
		t.Errorf("tracked = %v", gw.tracked)
	}
}

func TestSubmitWait(t *testing.T) {
	gw := &fakeGateway{answer: true}
	client := dialControl(t, gw)

	res, err := client.Submit(callCtx(t), mustStruct(t, map[string]interface{}{"command": "CLIENT", "wait": true}))
	if err != nil {
		t.Fatal(err)
	}
	if m := res.AsMap(); m["success"] != true || m["message"] != "answered" {
		t.Errorf("response = %v", m)
	}
}

func TestClose(t *testing.T) {
	gw := &fakeGateway{closeErr: errors.New("can not close connection, there are active events in queue")}
	client := dialControl(t, gw)

	res, err := client.Close(callCtx(t), mustStruct(t, map[string]interface{}{}))
	if err != nil {
		t.Fatal(err)
	}
	if res.AsMap()["success"] != false {
		t.Errorf("unforced close = %v", res.AsMap())
	}

	res, err = client.Close(callCtx(t), mustStruct(t, map[string]interface{}{"force": true}))
	if err != nil {
		t.Fatal(err)
	}
	if res.AsMap()["success"] != true {
		t.Errorf("forced close = %v", res.AsMap())
	}
	if len(gw.closed) != 2 || gw.closed[0] || !gw.closed[1] {
		t.Errorf("closed = %v", gw.closed)
	}
}
