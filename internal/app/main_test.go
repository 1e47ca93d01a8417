package app_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/heejin0702/anpetna-care/internal/app"
	"github.com/heejin0702/anpetna-care/internal/auth"
	"github.com/heejin0702/anpetna-care/internal/notify"
	"github.com/heejin0702/anpetna-care/internal/pkg/clock"
)

var kst = time.FixedZone("KST", 9*60*60)

const testSecret = "test-secret"

type testEnv struct {
	router     *gin.Engine
	jwtManager *auth.JWTManager
	clock      *clock.Manual
	events     *notify.Recorder

	hospitalID string
	hotelID    string
	doctorID   string
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// newMemoryEnv starts the application on the in-memory store with the clock at 2025-03-08 12:00 KST.
func newMemoryEnv(t *testing.T) *testEnv {
	t.Helper()

	clk := clock.NewManual(time.Date(2025, 3, 8, 12, 0, 0, 0, kst))
	events := notify.NewRecorder(256)
	container := app.NewContainer(app.Config{
		JWTSecret: testSecret,
		JWTTTL:    30 * time.Minute,
		Location:  kst,
		Clock:     clk,
		Notifier:  events,
	})
	require.NotNil(t, container.MemoryDirectory)

	hospital := container.MemoryDirectory.AddVenue("Anpetna Animal Hospital", "")
	hotel := container.MemoryDirectory.AddVenue("Anpetna Pet Hotel", "")
	doc, err := container.MemoryDirectory.AddDoctor(hospital.ID, "D1", "")
	require.NoError(t, err)

	return &testEnv{
		router:     container.Router,
		jwtManager: container.JWTManager,
		clock:      clk,
		events:     events,
		hospitalID: hospital.ID,
		hotelID:    hotel.ID,
		doctorID:   doc.ID,
	}
}

func (e *testEnv) executeRequest(method, path string, body any, token string, headers ...map[string]string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, h := range headers {
		for k, v := range h {
			req.Header.Set(k, v)
		}
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) generateToken(memberID string, role auth.Role) string {
	token, _ := e.jwtManager.GenerateAccessToken(memberID, role)
	return token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
