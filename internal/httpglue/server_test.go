package httpglue

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/trafficmind/violation-core/internal/roiconfig"
	"github.com/trafficmind/violation-core/internal/rules"
	"github.com/trafficmind/violation-core/internal/stream"
)

const debugROI = `{
  "rotated_view": false,
  "NORTH": {"stop_line": [[[100,180],[300,180],[300,220],[100,220]]],
    "lanes": {"in": [[[100,220],[300,220],[300,500],[100,500]]], "out": []},
    "left_turn_waiting_area": []},
  "SOUTH": {"stop_line": [[[100,580],[300,580],[300,620],[100,620]]], "lanes": {"in": [], "out": []}, "left_turn_waiting_area": []},
  "EAST": {"stop_line": [[[580,280],[620,280],[620,420],[580,420]]], "lanes": {"in": [], "out": []}, "left_turn_waiting_area": []},
  "WEST": {"stop_line": [[[0,280],[40,280],[40,420],[0,420]]], "lanes": {"in": [], "out": []}, "left_turn_waiting_area": []},
  "solid_lines": []
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	roiPath := filepath.Join(dir, "roi.json")
	require.NoError(t, os.WriteFile(roiPath, []byte(debugROI), 0o644))
	model, err := roiconfig.Load(roiPath)
	require.NoError(t, err)

	shotDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(shotDir, "v1.jpg"), []byte("fake-jpeg"), 0o644))

	return New(shotDir, model)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "ok", out["status"])
}

func TestSnapshotServingRejectsPathTraversal(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/snapshots/v1.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/snapshots/../go.mod")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.NotEqual(t, http.StatusOK, resp2.StatusCode)
}

func TestDebugLanesReportsOccupancy(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	body := strings.NewReader(`{"tracks":[{"trackId":7,"x":200,"y":400}]}`)
	resp, err := http.Post(srv.URL+"/debug/lanes", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []roiconfig.LaneOccupancy
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 1)
	require.Equal(t, roiconfig.North, out[0].Direction)
}

func TestWebsocketBroadcastsViolations(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/violations"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond) // let the hub register the client
	s.Broadcast(stream.Violation{
		Violation: rules.Violation{Kind: rules.RedLight, TrackID: 9, Direction: roiconfig.North},
		ID:        "v9",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got stream.Violation
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, "v9", got.ID)
	require.Equal(t, rules.RedLight, got.Kind)
}
