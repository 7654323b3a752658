package metrics

import (
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideServer, ProvideSyncCollector)

// ProvideServer builds the /metrics listener. It stays unbound until Start.
func ProvideServer(config MetricsConfig) *Server {
	return NewServer(config)
}

// ProvideSyncCollector registers the reconcile counters on the server's registry.
func ProvideSyncCollector(server *Server) (*SyncCollector, error) {
	c := NewSyncCollector()
	if err := c.Register(server); err != nil {
		return nil, err
	}
	return c, nil
}
