package bench

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/BryanSouza91/PulsingFC/internal/loop"
	"github.com/BryanSouza91/PulsingFC/internal/motors"
	"github.com/BryanSouza91/PulsingFC/internal/params"
)

func newTestServer(t *testing.T) (*Server, *loop.StatusBoard, chan loop.TestCommand) {
	t.Helper()
	store, err := params.Load("")
	require.NoError(t, err)
	board := &loop.StatusBoard{}
	tests := make(chan loop.TestCommand, 1)
	return New(board, store, tests, nil, zerolog.Nop()), board, tests
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	var out map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	}
	return rr, out
}

// serveTests answers queued commands the way the loop would.
func serveTests(tests <-chan loop.TestCommand, answer func(loop.TestCommand) error) {
	go func() {
		for cmd := range tests {
			cmd.Reply <- answer(cmd)
		}
	}()
}

func TestStatusAndMask(t *testing.T) {
	s, board, _ := newTestServer(t)
	board.Publish(loop.Status{
		Tick:   7,
		Phase:  motors.ThrottleUnlimited.String(),
		Limits: motors.LimitFlags{Roll: true, Pitch: true},
		Mask:   1<<0 | 1<<3,
	})

	rr, body := do(t, s, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "throttle_unlimited", body["phase"])
	require.EqualValues(t, 7, body["tick"])

	rr, body = do(t, s, http.MethodGet, "/motors/mask", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualValues(t, 9, body["motor_mask"])

	rr, body = do(t, s, http.MethodGet, "/motors/limits", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, body["Roll"])
	require.Equal(t, false, body["Yaw"])
}

func TestMotorTest(t *testing.T) {
	s, _, tests := newTestServer(t)
	got := make(chan loop.TestCommand, 1)
	serveTests(tests, func(cmd loop.TestCommand) error {
		got <- cmd
		if cmd.Seq > 4 {
			return loop.ErrBadSequence
		}
		return nil
	})

	rr, body := do(t, s, http.MethodPost, "/motors/test", `{"seq":2,"pwm":1400,"duration_ms":250}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "ok", body["status"])
	cmd := <-got
	require.Equal(t, uint8(2), cmd.Seq)
	require.Equal(t, uint16(1400), cmd.PWM)
	require.Equal(t, int64(250), cmd.Duration.Milliseconds())

	rr, _ = do(t, s, http.MethodPost, "/motors/test", `{"seq":7,"pwm":1400}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	<-got

	rr, _ = do(t, s, http.MethodPost, "/motors/test", `{"pwm":1400}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMotorTestWhileArmed(t *testing.T) {
	s, _, tests := newTestServer(t)
	serveTests(tests, func(loop.TestCommand) error { return loop.ErrArmed })

	rr, _ := do(t, s, http.MethodPost, "/motors/test", `{"seq":1,"pwm":1200}`)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestMotorTestLoopBusy(t *testing.T) {
	s, _, tests := newTestServer(t)
	tests <- loop.TestCommand{Reply: make(chan error, 1)}

	rr, _ := do(t, s, http.MethodPost, "/motors/test", `{"seq":1,"pwm":1200}`)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestParams(t *testing.T) {
	s, _, _ := newTestServer(t)

	rr, body := do(t, s, http.MethodGet, "/params/MOT_YAW_DIR", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualValues(t, 1, body["value"])

	rr, _ = do(t, s, http.MethodPut, "/params/MOT_YAW_DIR", `{"value":-1}`)
	require.Equal(t, http.StatusOK, rr.Code)
	rr, body = do(t, s, http.MethodGet, "/params", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.EqualValues(t, -1, body["MOT_YAW_DIR"])

	rr, _ = do(t, s, http.MethodPut, "/params/MOT_YAW_DIR", `{"value":0.5}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = do(t, s, http.MethodPut, "/params/MOT_NOPE", `{"value":1}`)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = do(t, s, http.MethodGet, "/params/MOT_NOPE", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = do(t, s, http.MethodPut, "/params/MOT_SPIN_MIN", `{}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s, _, _ := newTestServer(t)
	rr, body := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", body["status"])

	rr, _ = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/params/MOT_YAW_DIR", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}
