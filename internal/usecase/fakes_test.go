package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

const testNetwork = "testnet"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		DataDir: ".catapult",
		Deploy: config.DeploySettings{
			Workers:     4,
			MaxAttempts: 3,
			BaseDelay:   config.Duration{Duration: time.Millisecond},
			MaxDelay:    config.Duration{Duration: 5 * time.Millisecond},
		},
	}
}

// memLedger applies the same current-pointer rule as the file ledger and
// records every write so tests can observe transitions
type memLedger struct {
	mu      sync.Mutex
	current map[string]*models.DeploymentRecord
	history map[string][]*models.DeploymentRecord
	writes  []*models.DeploymentRecord
	putErr  error
}

func newMemLedger() *memLedger {
	return &memLedger{
		current: make(map[string]*models.DeploymentRecord),
		history: make(map[string][]*models.DeploymentRecord),
	}
}

func (l *memLedger) Get(_ context.Context, name, network string) (*models.DeploymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current[network+"/"+name].Clone(), nil
}

func (l *memLedger) Put(_ context.Context, record *models.DeploymentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.putErr != nil {
		return &domain.LedgerError{Op: "put", Network: record.Network, Err: l.putErr}
	}
	key := record.Key()
	l.writes = append(l.writes, record.Clone())
	l.history[key] = append(l.history[key], record.Clone())
	if cur := l.current[key]; cur.IsConfirmed() && record.Status != models.DeploymentStatusConfirmed {
		return nil
	}
	l.current[key] = record.Clone()
	return nil
}

func (l *memLedger) History(_ context.Context, name, network string) ([]*models.DeploymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.history[network+"/"+name], nil
}

func (l *memLedger) List(_ context.Context, network string) ([]*models.DeploymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.DeploymentRecord
	for _, r := range l.current {
		if r.Network == network {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (l *memLedger) Networks(context.Context) ([]string, error) {
	return []string{testNetwork}, nil
}

func (l *memLedger) seed(record *models.DeploymentRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current[record.Key()] = record.Clone()
	l.history[record.Key()] = append(l.history[record.Key()], record.Clone())
}

func (l *memLedger) writesFor(name string) []*models.DeploymentRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*models.DeploymentRecord
	for _, w := range l.writes {
		if w.Component == name {
			out = append(out, w)
		}
	}
	return out
}

func (l *memLedger) writeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.writes)
}

func (l *memLedger) snapshot() map[string]models.DeploymentRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]models.DeploymentRecord, len(l.current))
	for k, v := range l.current {
		out[k] = *v
	}
	return out
}

// fakeArtifacts serves an artifact for any name except those listed as missing
type fakeArtifacts struct {
	missing map[string]bool
}

func (a *fakeArtifacts) GetArtifact(_ context.Context, name string) (*models.Artifact, error) {
	if a.missing[name] {
		return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, name)
	}
	return &models.Artifact{Name: name, Bytecode: []byte(name)}, nil
}

// fakeEncoder rejects arguments equal to "malformed"
type fakeEncoder struct{}

func (fakeEncoder) EncodeInitializer(artifact *models.Artifact, method string, args []any) ([]byte, error) {
	for _, a := range args {
		if a == "malformed" {
			return nil, fmt.Errorf("cannot use %v as argument of %s", a, method)
		}
	}
	return []byte(fmt.Sprintf("%s(%v)", method, args)), nil
}

func (fakeEncoder) EncodeConstructor(artifact *models.Artifact, args []any) ([]byte, error) {
	for _, a := range args {
		if a == "malformed" {
			return nil, fmt.Errorf("cannot use %v as constructor argument", a)
		}
	}
	return append([]byte{}, artifact.Bytecode...), nil
}

// fakeSession returns scripted errors per component and otherwise succeeds
// with sequential addresses
type fakeSession struct {
	mu           sync.Mutex
	submitErrors map[string][]error
	waitErrors   map[string][]error
	submits      map[string]int
	requests     map[string]*models.TxRequest
	handles      map[common.Hash]string
	next         int64
	latency      time.Duration
	inflight     int
	maxInflight  int
	onSubmit     func(component string)
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		submitErrors: make(map[string][]error),
		waitErrors:   make(map[string][]error),
		submits:      make(map[string]int),
		requests:     make(map[string]*models.TxRequest),
		handles:      make(map[common.Hash]string),
	}
}

func (s *fakeSession) Network() string { return testNetwork }
func (s *fakeSession) ChainID() uint64 { return 31337 }

func (s *fakeSession) Submit(_ context.Context, req *models.TxRequest) (*models.TxResult, error) {
	if s.onSubmit != nil {
		s.onSubmit(req.Component)
	}
	s.mu.Lock()
	s.submits[req.Component]++
	n := s.submits[req.Component]
	s.requests[req.Component] = req
	s.inflight++
	s.maxInflight = max(s.maxInflight, s.inflight)
	s.mu.Unlock()

	if s.latency > 0 {
		time.Sleep(s.latency)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if errs := s.submitErrors[req.Component]; n <= len(errs) && errs[n-1] != nil {
		return nil, errs[n-1]
	}
	s.next++
	hash := common.BigToHash(big.NewInt(s.next))
	s.handles[hash] = req.Component
	return &models.TxResult{
		Hash:         hash,
		ProxyAddress: common.BigToAddress(big.NewInt(0x1000 + s.next)),
		LogicAddress: common.BigToAddress(big.NewInt(0x2000 + s.next)),
		ProxyKind:    req.ProxyKind,
	}, nil
}

func (s *fakeSession) WaitForConfirmation(_ context.Context, handle *models.TxResult) (*models.Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := s.handles[handle.Hash]
	if errs := s.waitErrors[name]; len(errs) > 0 && s.submits[name] <= len(errs) && errs[s.submits[name]-1] != nil {
		return nil, errs[s.submits[name]-1]
	}
	return &models.Confirmation{
		BlockNumber:  uint64(100 + s.next),
		TxHash:       handle.Hash,
		Address:      handle.ProxyAddress,
		LogicAddress: handle.LogicAddress,
	}, nil
}

func (s *fakeSession) submitCount(component string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submits[component]
}

func (s *fakeSession) totalSubmits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.submits {
		total += n
	}
	return total
}

type fakeSessionFactory struct {
	session *fakeSession
	opened  int
}

func (f *fakeSessionFactory) Open(context.Context, *config.Network) (usecase.NetworkSession, error) {
	f.opened++
	return f.session, nil
}

type fakeEnv map[string]any

func (e fakeEnv) Lookup(_ string, key string) (any, bool) {
	v, ok := e[key]
	return v, ok
}

type fakeManifests struct {
	manifest *models.Manifest
}

func (f *fakeManifests) Load(context.Context, string) (*models.Manifest, error) {
	return f.manifest, nil
}

type fakeNetworks struct{}

func (fakeNetworks) GetNetworks(context.Context) []string { return []string{testNetwork} }

func (fakeNetworks) ResolveNetwork(_ context.Context, name string) (*config.Network, error) {
	if name != testNetwork {
		return nil, fmt.Errorf("%w: %s", domain.ErrNetworkNotConfigured, name)
	}
	return &config.Network{Name: testNetwork, ChainID: 31337}, nil
}

// recordingProgress collects events, safe for concurrent workers
type recordingProgress struct {
	mu     sync.Mutex
	events []usecase.ProgressEvent
}

func (p *recordingProgress) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingProgress) Info(string)  {}
func (p *recordingProgress) Error(string) {}

func (p *recordingProgress) stages(component string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.Component == component {
			out = append(out, e.Stage)
		}
	}
	return out
}

func component(name string, kind models.ProxyKind, args ...models.ArgValue) *models.ComponentSpec {
	return &models.ComponentSpec{Name: name, ProxyKind: kind, Args: args}
}

func confirmedRecord(name, address string) *models.DeploymentRecord {
	return &models.DeploymentRecord{
		ID:        "seed-" + name,
		Component: name,
		Network:   testNetwork,
		Address:   address,
		Status:    models.DeploymentStatusConfirmed,
		ProxyKind: models.ProxyKindTransparent,
		Artifact:  name,
	}
}
