package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-go/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1"
	Port      = 7350
)

// Opcodes mirror internal/ports/nakama.
const (
	OpMove          = 1
	OpNewGame       = 2
	OpToggleBot     = 3
	OpConfigureBot  = 6
	OpStateSnapshot = 101
	OpMoveApplied   = 102
	OpGameOver      = 103
	OpBotDecision   = 104
	OpGameError     = 199
)

const integrationEnvOn = "GAME2048_INTEGRATION"

type TestClient struct {
	Client  *nakama.Client
	Session *nakama.Session
	Socket  *nakama.Socket
	UserID  string
	matches chan *rtapi.MatchData
}

// requireServer skips the test unless a Nakama server with the module is running.
func requireServer(t *testing.T) {
	t.Helper()
	if os.Getenv(integrationEnvOn) == "" {
		t.Skipf("set %s=1 to run against a local Nakama server", integrationEnvOn)
	}
}

func NewTestClient(t *testing.T) *TestClient {
	t.Helper()
	client := nakama.NewClient(ServerKey, Host, Port, false)

	deviceID := fmt.Sprintf("test_device_%d", time.Now().UnixNano())
	session, err := client.AuthenticateDevice(context.Background(), deviceID, true, "")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}

	socket := client.NewSocket()
	if err := socket.Connect(context.Background(), session, true); err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}

	tc := &TestClient{
		Client:  client,
		Session: session,
		Socket:  socket,
		UserID:  session.UserId,
		matches: make(chan *rtapi.MatchData, 256),
	}
	socket.OnMatchData = func(data *rtapi.MatchData) {
		select {
		case tc.matches <- data:
		default:
		}
	}
	return tc
}

func (tc *TestClient) Close() {
	if tc.Socket != nil {
		tc.Socket.Close()
	}
}

// CreateAndJoinGame calls create_game with req and joins the returned match.
func (tc *TestClient) CreateAndJoinGame(t *testing.T, req map[string]interface{}) string {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "create_game", string(payload))
	if err != nil {
		t.Fatalf("RPC create_game failed: %v", err)
	}

	var resp struct {
		MatchID string `json:"match_id"`
	}
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil || resp.MatchID == "" {
		t.Fatalf("RPC create_game returned %q (%v)", rpc.Payload, err)
	}

	if _, err := tc.Socket.JoinMatch(context.Background(), nil, resp.MatchID, nil); err != nil {
		t.Fatalf("Failed to join match %s: %v", resp.MatchID, err)
	}
	return resp.MatchID
}

// Send encodes fields as a protobuf Struct and sends them with opCode.
func (tc *TestClient) Send(t *testing.T, matchID string, opCode int64, fields map[string]interface{}) {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	data, err := proto.Marshal(s)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if _, err := tc.Socket.SendMatchState(context.Background(), matchID, opCode, data, nil); err != nil {
		t.Fatalf("Failed to send opcode %d: %v", opCode, err)
	}
}

// WaitForMatchState waits for opCode, dropping other messages, and decodes it.
func (tc *TestClient) WaitForMatchState(t *testing.T, opCode int64, timeout time.Duration) map[string]interface{} {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case data := <-tc.matches:
			if data.OpCode != opCode {
				continue
			}
			s := &structpb.Struct{}
			if err := proto.Unmarshal(data.Data, s); err != nil {
				t.Fatalf("unmarshal opcode %d: %v", opCode, err)
			}
			return s.AsMap()
		case <-deadline:
			t.Fatalf("Timeout waiting for OpCode %d", opCode)
			return nil
		}
	}
}
