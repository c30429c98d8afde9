package services

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeepAlivePingaPeriodicamente(t *testing.T) {
	var pings int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&pings, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewKeepAliveService(server.URL, 10*time.Millisecond)
	svc.Start()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&pings) >= 2
	}, 2*time.Second, 5*time.Millisecond, "o ping periódico deve disparar mais de uma vez")

	svc.Stop()
	after := atomic.LoadInt64(&pings)

	// Depois do Stop nenhum ping novo acontece
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt64(&pings), after+1, "pings devem cessar após o Stop")
}

func TestKeepAliveStopEIdempotente(t *testing.T) {
	svc := NewKeepAliveService("http://localhost:0", time.Minute)
	svc.Start()

	svc.Stop()
	assert.NotPanics(t, func() { svc.Stop() })
}
