package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// DialFunc connects to an RPC endpoint
type DialFunc func(ctx context.Context, rpcURL string) (Client, error)

// SessionFactory opens go-ethereum backed sessions
type SessionFactory struct {
	dial DialFunc
	log  *slog.Logger
}

// NewSessionFactory creates a factory dialing through ethclient
func NewSessionFactory(log *slog.Logger) *SessionFactory {
	return &SessionFactory{
		dial: func(ctx context.Context, rpcURL string) (Client, error) {
			client, err := ethclient.DialContext(ctx, rpcURL)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		log: log,
	}
}

// NewSessionFactoryWithDialer creates a factory using a custom dialer
func NewSessionFactoryWithDialer(dial DialFunc, log *slog.Logger) *SessionFactory {
	return &SessionFactory{dial: dial, log: log}
}

// Open dials the network endpoint and verifies its chain ID
func (f *SessionFactory) Open(ctx context.Context, network *config.Network) (usecase.NetworkSession, error) {
	if network.RPCURL == "" {
		if len(network.UnsetEnv) > 0 {
			return nil, fmt.Errorf("network %s has no rpc_url configured (unset: %s)", network.Name, strings.Join(network.UnsetEnv, ", "))
		}
		return nil, fmt.Errorf("network %s has no rpc_url configured", network.Name)
	}

	client, err := f.dial(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	session, err := NewSession(ctx, client, network, f.log)
	if err != nil {
		client.Close()
		return nil, err
	}
	return session, nil
}

var _ usecase.SessionFactory = (*SessionFactory)(nil)
