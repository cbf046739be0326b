package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"dealflow-hq/vega/pkg/config"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserving port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func testConfig(addr string) config.ServerConfig {
	return config.ServerConfig{
		ListenAddress:   addr,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     5 * time.Second,
		ShutdownTimeout: 2 * time.Second,
	}
}

func TestServerServesAndStops(t *testing.T) {
	addr := freeAddr(t)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	srv := New(testConfig(addr), handler, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Start(context.Background()) }()

	waitForServer(t, addr)
	if !srv.IsRunning() {
		t.Error("server should report running")
	}

	resp, err := http.Get("http://" + addr + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	srv.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if srv.IsRunning() {
		t.Error("server should report stopped")
	}
}

func TestServerStopsOnContextCancel(t *testing.T) {
	addr := freeAddr(t)
	srv := New(testConfig(addr), http.NewServeMux(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	waitForServer(t, addr)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop on context cancel")
	}
}

func TestStartTwiceFails(t *testing.T) {
	addr := freeAddr(t)
	srv := New(testConfig(addr), http.NewServeMux(), nil)

	done := make(chan error, 1)
	go func() { done <- srv.Start(context.Background()) }()
	waitForServer(t, addr)

	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start should fail while running")
	}

	srv.Stop()
	<-done
}

func waitForServer(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server at %s never came up", addr)
}
