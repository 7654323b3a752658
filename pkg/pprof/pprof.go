// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pprof

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/go-arcade/guildsync/pkg/safe"
)

// PprofConfig is the [pprof] section. Keep Host on loopback in production.
type PprofConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

func (p *PprofConfig) SetDefaults() {
	if p.Host == "" {
		p.Host = "127.0.0.1"
	}
	if p.Port == 0 {
		p.Port = 8083
	}
	if p.Path == "" {
		p.Path = "/debug/pprof"
	}
}

func (p PprofConfig) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

type Server struct {
	config PprofConfig

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

func NewServer(config PprofConfig) *Server {
	config.SetDefaults()
	return &Server{config: config}
}

// Handler mounts the runtime profiles under the configured path.
func (s *Server) Handler() http.Handler {
	p := s.config.Path
	mux := http.NewServeMux()
	mux.HandleFunc(p+"/", pprof.Index)
	mux.HandleFunc(p+"/cmdline", pprof.Cmdline)
	mux.HandleFunc(p+"/profile", pprof.Profile)
	mux.HandleFunc(p+"/symbol", pprof.Symbol)
	mux.HandleFunc(p+"/trace", pprof.Trace)
	// pprof.Index only resolves names under /debug/pprof/
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle(p+"/"+name, pprof.Handler(name))
	}
	return mux
}

// Start binds synchronously; a disabled server is a no-op.
func (s *Server) Start() error {
	if !s.config.Enable {
		log.Info("pprof server is disabled")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("pprof listen: %w", err)
	}
	srv := &http.Server{Handler: s.Handler()}
	s.server, s.listener = srv, ln

	safe.Go("pprof.server", func() {
		log.Infow("pprof server started", "address", ln.Addr().String(), "path", s.config.Path)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("pprof server stopped", "error", err)
		}
	})
	return nil
}

// Addr is the bound address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
