package pprof

import (
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideServer)

// ProvideServer builds the profiling listener. It stays unbound until Start.
func ProvideServer(config PprofConfig) *Server {
	return NewServer(config)
}
