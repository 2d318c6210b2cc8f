package youtube

import (
	"sync"
	"time"
)

// DailyQuotaUnits is the YouTube Data API v3 allowance per key per UTC day.
const DailyQuotaUnits = 10000

// CredentialState is the lifecycle state of one API key.
type CredentialState int

const (
	CredentialActive    CredentialState = iota
	CredentialSuspended                 // non-quota 403; cleared on restart
	CredentialExhausted                 // daily quota spent; cleared at UTC midnight
)

// Credential is one API key handed out by the pool.
type Credential struct {
	Index int
	Key   string
}

// CredentialPool owns an ordered set of API keys, tracks per-key unit spend,
// and skips suspended or exhausted keys when selecting. All state is behind
// one mutex; only gateway code paths touch it.
type CredentialPool struct {
	mu              sync.Mutex
	keys            []string
	current         int
	suspended       map[int]bool
	exhaustedOn     map[int]time.Time // UTC date the key ran dry
	unitsPerKey     []int
	totalUnits      int
	unitsPerChannel map[string]int
}

// NewCredentialPool creates a pool over the given keys in stable order.
func NewCredentialPool(keys []string) *CredentialPool {
	return &CredentialPool{
		keys:            keys,
		suspended:       make(map[int]bool),
		exhaustedOn:     make(map[int]time.Time),
		unitsPerKey:     make([]int, len(keys)),
		unitsPerChannel: make(map[string]int),
	}
}

// Len returns the total number of keys, available or not.
func (p *CredentialPool) Len() int { return len(p.keys) }

// Current returns the selected credential, skipping unavailable keys.
// The second result is false when every key is suspended or exhausted.
func (p *CredentialPool) Current() (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.allUnavailableLocked() {
		return Credential{}, false
	}
	for i := 0; i < len(p.keys); i++ {
		if p.availableLocked(p.current) {
			return Credential{Index: p.current, Key: p.keys[p.current]}, true
		}
		p.current = (p.current + 1) % len(p.keys)
	}
	return Credential{}, false
}

// Rotate advances to the next eligible credential. Called once per logical
// unit of work (a channel) and after a key is marked unavailable.
func (p *CredentialPool) Rotate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.allUnavailableLocked() {
		return
	}
	p.current = (p.current + 1) % len(p.keys)
	for i := 0; i < len(p.keys) && !p.availableLocked(p.current); i++ {
		p.current = (p.current + 1) % len(p.keys)
	}
}

// MarkSuspended flags a key as suspended until process restart.
func (p *CredentialPool) MarkSuspended(index int) {
	p.mu.Lock()
	p.suspended[index] = true
	p.mu.Unlock()
}

// MarkExhausted flags a key as out of quota until the next UTC day.
func (p *CredentialPool) MarkExhausted(index int, todayUTC time.Time) {
	p.mu.Lock()
	p.exhaustedOn[index] = dateOnly(todayUTC)
	p.mu.Unlock()
}

// ResetDaily clears exhausted flags from previous UTC days and returns how
// many keys came back.
func (p *CredentialPool) ResetDaily(todayUTC time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	today := dateOnly(todayUTC)
	reset := 0
	for idx, day := range p.exhaustedOn {
		if day.Before(today) {
			delete(p.exhaustedOn, idx)
			reset++
		}
	}
	return reset
}

// ResetSuspended clears every suspended flag. Called once at process start
// so previously misbehaving keys get retried.
func (p *CredentialPool) ResetSuspended() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.suspended)
	p.suspended = make(map[int]bool)
	return n
}

// Charge accounts cost units against a key and a channel label.
func (p *CredentialPool) Charge(index int, channel string, cost int) {
	p.mu.Lock()
	p.totalUnits += cost
	if index >= 0 && index < len(p.unitsPerKey) {
		p.unitsPerKey[index] += cost
	}
	p.unitsPerChannel[channel] += cost
	p.mu.Unlock()
}

// ResetAccounting zeroes unit counters for a new collection run. Key
// availability flags are untouched.
func (p *CredentialPool) ResetAccounting() {
	p.mu.Lock()
	p.totalUnits = 0
	p.unitsPerKey = make([]int, len(p.keys))
	p.unitsPerChannel = make(map[string]int)
	p.mu.Unlock()
}

// TotalUnits returns the units spent since the last accounting reset.
func (p *CredentialPool) TotalUnits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalUnits
}

// AllUnavailable reports whether no key can serve a request.
func (p *CredentialPool) AllUnavailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allUnavailableLocked()
}

// ActiveCount returns how many keys are currently eligible.
func (p *CredentialPool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for i := range p.keys {
		if p.availableLocked(i) {
			n++
		}
	}
	return n
}

// StateOf returns the lifecycle state of one key.
func (p *CredentialPool) StateOf(index int) CredentialState {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.suspended[index]:
		return CredentialSuspended
	case !p.exhaustedOn[index].IsZero():
		return CredentialExhausted
	default:
		return CredentialActive
	}
}

// PoolStats is a point-in-time snapshot of pool accounting.
type PoolStats struct {
	TotalKeys       int            `json:"totalKeys"`
	ActiveKeys      int            `json:"activeKeys"`
	SuspendedKeys   int            `json:"suspendedKeys"`
	ExhaustedKeys   int            `json:"exhaustedKeys"`
	TotalUnits      int            `json:"totalUnits"`
	UnitsPerKey     []int          `json:"unitsPerKey"`
	UnitsPerChannel map[string]int `json:"unitsPerChannel"`
	AvailableQuota  int            `json:"availableQuota"`
}

// Stats returns a copy of the pool's accounting counters.
func (p *CredentialPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	active := 0
	for i := range p.keys {
		if p.availableLocked(i) {
			active++
		}
	}
	perKey := make([]int, len(p.unitsPerKey))
	copy(perKey, p.unitsPerKey)
	perChannel := make(map[string]int, len(p.unitsPerChannel))
	for k, v := range p.unitsPerChannel {
		perChannel[k] = v
	}
	return PoolStats{
		TotalKeys:       len(p.keys),
		ActiveKeys:      active,
		SuspendedKeys:   len(p.suspended),
		ExhaustedKeys:   len(p.exhaustedOn),
		TotalUnits:      p.totalUnits,
		UnitsPerKey:     perKey,
		UnitsPerChannel: perChannel,
		AvailableQuota:  active * DailyQuotaUnits,
	}
}

func (p *CredentialPool) availableLocked(index int) bool {
	return !p.suspended[index] && p.exhaustedOn[index].IsZero()
}

func (p *CredentialPool) allUnavailableLocked() bool {
	return len(p.suspended)+len(p.exhaustedOn) >= len(p.keys)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
