package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

const partitionVersion = "1"

// Partition holds every record written for one network
type Partition struct {
	Version string                              `json:"version"`
	Network string                              `json:"network"`
	Current map[string]*models.DeploymentRecord `json:"current"` // component -> current record
	History []*models.DeploymentRecord          `json:"history"` // append-only, write order
}

func newPartition(network string) *Partition {
	return &Partition{
		Version: partitionVersion,
		Network: network,
		Current: make(map[string]*models.DeploymentRecord),
	}
}

// apply appends the record and moves the current pointer. A Confirmed
// current record is only superseded by another Confirmed record.
func (p *Partition) apply(record *models.DeploymentRecord) {
	p.History = append(p.History, record)
	if cur := p.Current[record.Component]; cur.IsConfirmed() && record.Status != models.DeploymentStatusConfirmed {
		return
	}
	p.Current[record.Component] = record
}

func (p *Partition) clone() *Partition {
	c := &Partition{
		Version: p.Version,
		Network: p.Network,
		Current: make(map[string]*models.DeploymentRecord, len(p.Current)),
		History: slices.Clone(p.History),
	}
	for k, v := range p.Current {
		c.Current[k] = v
	}
	return c
}

// backend persists partitions
type backend interface {
	load(network string) (*Partition, error)
	save(p *Partition) error
	networks() ([]string, error)
}

// Ledger is the deployment ledger. Every Put is persisted by the backend
// before it returns; a failed persist leaves the in-memory state untouched.
type Ledger struct {
	mu         sync.RWMutex
	partitions map[string]*Partition
	backend    backend
}

func newLedger(b backend) *Ledger {
	return &Ledger{
		partitions: make(map[string]*Partition),
		backend:    b,
	}
}

// NewMemoryLedger creates a ledger that keeps everything in memory
func NewMemoryLedger() *Ledger {
	return newLedger(memoryBackend{})
}

// partition returns the loaded partition for a network. Callers hold mu.
func (l *Ledger) partition(network string) (*Partition, error) {
	if p, ok := l.partitions[network]; ok {
		return p, nil
	}
	p, err := l.backend.load(network)
	if err != nil {
		return nil, &domain.LedgerError{Op: "load", Network: network, Err: err}
	}
	l.partitions[network] = p
	return p, nil
}

// Get returns the current record for a component, or nil when none exists
func (l *Ledger) Get(ctx context.Context, name, network string) (*models.DeploymentRecord, error) {
	if err := validateNetwork(network); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.partition(network)
	if err != nil {
		return nil, err
	}
	return p.Current[name].Clone(), nil
}

// Put appends a record and persists the partition
func (l *Ledger) Put(ctx context.Context, record *models.DeploymentRecord) error {
	if record == nil || record.Component == "" {
		return &domain.LedgerError{Op: "put", Err: fmt.Errorf("record has no component")}
	}
	if err := validateNetwork(record.Network); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.partition(record.Network)
	if err != nil {
		return err
	}

	next := p.clone()
	next.apply(record.Clone())
	if err := l.backend.save(next); err != nil {
		return &domain.LedgerError{Op: "put", Network: record.Network, Err: err}
	}
	l.partitions[record.Network] = next
	return nil
}

// History returns every record written for a component, oldest first
func (l *Ledger) History(ctx context.Context, name, network string) ([]*models.DeploymentRecord, error) {
	if err := validateNetwork(network); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.partition(network)
	if err != nil {
		return nil, err
	}
	var out []*models.DeploymentRecord
	for _, r := range p.History {
		if r.Component == name {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// List returns the current record of every component on a network, by name
func (l *Ledger) List(ctx context.Context, network string) ([]*models.DeploymentRecord, error) {
	if err := validateNetwork(network); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.partition(network)
	if err != nil {
		return nil, err
	}
	out := make([]*models.DeploymentRecord, 0, len(p.Current))
	for _, r := range p.Current {
		out = append(out, r.Clone())
	}
	slices.SortFunc(out, func(a, b *models.DeploymentRecord) int {
		return strings.Compare(a.Component, b.Component)
	})
	return out, nil
}

// Networks returns every network with at least one record
func (l *Ledger) Networks(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stored, err := l.backend.networks()
	if err != nil {
		return nil, &domain.LedgerError{Op: "list", Err: err}
	}
	for name, p := range l.partitions {
		if len(p.History) > 0 && !slices.Contains(stored, name) {
			stored = append(stored, name)
		}
	}
	slices.Sort(stored)
	return stored, nil
}

// validateNetwork keeps network ids usable as partition file names
func validateNetwork(network string) error {
	if network == "" || strings.ContainsAny(network, `/\`) || strings.Contains(network, "..") {
		return &domain.LedgerError{Op: "validate", Network: network, Err: fmt.Errorf("invalid network id %q", network)}
	}
	return nil
}

type memoryBackend struct{}

func (memoryBackend) load(network string) (*Partition, error) { return newPartition(network), nil }
func (memoryBackend) save(*Partition) error                    { return nil }
func (memoryBackend) networks() ([]string, error)              { return nil, nil }

var _ usecase.DeploymentLedger = (*Ledger)(nil)
