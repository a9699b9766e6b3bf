package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/igolaizola/igochat/internal/relay"
	"github.com/igolaizola/igochat/pkg/gigachat"
)

const (
	maxBodySize     = 1 << 20
	shutdownTimeout = 30 * time.Second
)

const errChat = "Ошибка при общении с GigaChat"

// Sender answers chat messages.
type Sender interface {
	Send(ctx context.Context, message string, history []gigachat.Message) (*relay.Result, error)
}

type chatRequest struct {
	Message string             `json:"message"`
	History []gigachat.Message `json:"history"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the chat relay over HTTP.
type Server struct {
	sender    Sender
	addr      string
	static    string
	httpSrv   *http.Server
	boundAddr string
	ready     chan struct{}
}

// New returns a new server. When static is not empty the directory is
// served at the root path.
func New(sender Sender, addr, static string) *Server {
	return &Server{
		sender: sender,
		addr:   addr,
		static: static,
		ready:  make(chan struct{}),
	}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	if s.static != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.static)))
	}
	return cors(mux)
}

// Run serves requests until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: couldn't listen on %s: %w", s.addr, err)
	}
	s.boundAddr = listener.Addr().String()
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	close(s.ready)

	// Shutdown result, sent once in-flight requests are drained
	stopped := make(chan error, 1)
	serveDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			stopped <- s.Stop(context.Background())
		case <-serveDone:
			stopped <- nil
		}
	}()

	log.Printf("server: listening on %s", s.boundAddr)
	err = s.httpSrv.Serve(listener)
	close(serveDone)
	stopErr := <-stopped
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: couldn't serve: %w", err)
	}
	if stopErr != nil {
		return fmt.Errorf("server: couldn't stop: %w", stopErr)
	}
	log.Println("server: stopped")
	return nil
}

// Stop gracefully shuts down the server, waiting up to shutdownTimeout for
// in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

// Addr waits until the server is listening and returns its address.
func (s *Server) Addr(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.ready:
		return s.boundAddr, nil
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	log.Printf("server: message received (%d history turns)", len(req.History))
	result, err := s.sender.Send(r.Context(), message, req.History)
	if err != nil {
		log.Println(fmt.Errorf("server: couldn't answer: %w", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errChat})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println(fmt.Errorf("server: couldn't write response: %w", err))
	}
}
