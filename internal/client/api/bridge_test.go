package api

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/sqlparrot/sqlparrot/internal/models"
	"github.com/stretchr/testify/require"
)

/*************
 * Fake bridge socket
 *************/

type bridgeCall struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args"`
}

// startBridge listens on a throwaway unix socket and answers every request
// with respond. The last decoded request is kept for assertions.
func startBridge(t *testing.T, respond func(bridgeCall) bridgeResponse) (string, *bridgeCall) {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "parrot.sock")
	ln, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	last := &bridgeCall{}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				var req bridgeCall
				if err := json.NewDecoder(conn).Decode(&req); err != nil {
					return
				}
				*last = req
				json.NewEncoder(conn).Encode(respond(req))
			}(conn)
		}
	}()

	return socketPath, last
}

func okData(t *testing.T, v any) bridgeResponse {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bridgeResponse{Success: true, Data: data}
}

/*************
 * Round trip tests
 *************/

func TestBridge_CommandRoundTrip(t *testing.T) {
	groups := []models.Group{{ID: "g1", Name: "Core", Databases: []string{"Billing"}}}
	var resp bridgeResponse
	socketPath, last := startBridge(t, func(bridgeCall) bridgeResponse { return resp })

	c := NewBridgeClient(socketPath, time.Second)

	resp = okData(t, groups)
	got, err := c.GetGroups(context.Background())
	require.NoError(t, err)
	require.Equal(t, "get_groups", last.Command)
	require.Equal(t, groups, got)
}

func TestBridge_ArgsEncoding(t *testing.T) {
	var resp bridgeResponse
	socketPath, last := startBridge(t, func(bridgeCall) bridgeResponse { return resp })
	c := NewBridgeClient(socketPath, time.Second)

	resp = okData(t, models.Group{ID: "g2", Name: "Reporting"})
	_, err := c.CreateGroup(context.Background(), "Reporting", []string{"Stats", "Audit"})
	require.NoError(t, err)
	require.Equal(t, "create_group", last.Command)
	require.JSONEq(t, `{"name":"Reporting","databases":["Stats","Audit"]}`, string(last.Args))

	resp = okData(t, nil)
	require.NoError(t, c.DeleteSnapshot(context.Background(), "snap-7"))
	require.Equal(t, "delete_snapshot", last.Command)
	require.JSONEq(t, `{"snapshotId":"snap-7"}`, string(last.Args))
}

func TestBridge_CheckPasswordBareBool(t *testing.T) {
	socketPath, last := startBridge(t, func(bridgeCall) bridgeResponse {
		return bridgeResponse{Success: true, Data: json.RawMessage(`true`)}
	})
	c := NewBridgeClient(socketPath, time.Second)

	res, err := c.CheckPassword(context.Background(), "hunter2!")
	require.NoError(t, err)
	require.Equal(t, "check_password", last.Command)
	require.JSONEq(t, `{"password":"hunter2!"}`, string(last.Args))
	require.True(t, res.Authenticated)
	require.Empty(t, res.SessionToken)
}

/*************
 * Error mapping tests
 *************/

func TestBridge_AuthRequiredMapsUnauthorized(t *testing.T) {
	socketPath, _ := startBridge(t, func(bridgeCall) bridgeResponse {
		return bridgeResponse{Success: false, Error: authRequiredMsg}
	})
	c := NewBridgeClient(socketPath, time.Second)

	_, err := c.GetGroups(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestBridge_ErrorPassthrough(t *testing.T) {
	socketPath, _ := startBridge(t, func(bridgeCall) bridgeResponse {
		return bridgeResponse{Success: false, Error: "Group not found"}
	})
	c := NewBridgeClient(socketPath, time.Second)

	err := c.DeleteGroup(context.Background(), "missing")
	require.EqualError(t, err, "Group not found")
}

func TestBridge_DialFailureMapsUnavailable(t *testing.T) {
	c := NewBridgeClient(filepath.Join(t.TempDir(), "absent.sock"), time.Second)
	_, err := c.PasswordStatus(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}
