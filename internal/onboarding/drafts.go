package onboarding

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type draft struct {
	seq       *Sequencer
	expiresAt time.Time
}

// DraftStore keeps in-progress wizards keyed by id. Every access extends a
// draft's lifetime by the TTL.
type DraftStore struct {
	ttl     time.Duration
	factory func() *Sequencer
	now     func() time.Time

	mu     sync.Mutex
	drafts map[string]*draft
}

// NewDraftStore creates a store whose drafts are built by factory.
func NewDraftStore(ttl time.Duration, factory func() *Sequencer) *DraftStore {
	return &DraftStore{
		ttl:     ttl,
		factory: factory,
		now:     time.Now,
		drafts:  make(map[string]*draft),
	}
}

// Create starts a new draft.
func (d *DraftStore) Create() (string, *Sequencer) {
	id := uuid.NewString()
	seq := d.factory()

	d.mu.Lock()
	d.drafts[id] = &draft{seq: seq, expiresAt: d.now().Add(d.ttl)}
	d.mu.Unlock()
	return id, seq
}

// Get returns a live draft.
func (d *DraftStore) Get(id string) (*Sequencer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dr, ok := d.drafts[id]
	if !ok {
		return nil, false
	}
	now := d.now()
	if !now.Before(dr.expiresAt) {
		delete(d.drafts, id)
		return nil, false
	}
	dr.expiresAt = now.Add(d.ttl)
	return dr.seq, true
}

func (d *DraftStore) Delete(id string) {
	d.mu.Lock()
	delete(d.drafts, id)
	d.mu.Unlock()
}

// Sweep drops expired drafts and returns how many were removed.
func (d *DraftStore) Sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	removed := 0
	for id, dr := range d.drafts {
		if !now.Before(dr.expiresAt) {
			delete(d.drafts, id)
			removed++
		}
	}
	return removed
}

func (d *DraftStore) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.drafts)
}
