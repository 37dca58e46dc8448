package process

import (
	"sync"

	"github.com/heph-rt/heph/pid"
)

// InactiveSet holds processes that exist but are not currently in a run
// queue: freshly spawned processes awaiting their first poll, and
// processes that returned Pending and are waiting on a waker or a timer.
//
// spec.md's radix/prefix tree is motivated by pointer-derived pids
// clustering inside allocator pages; SPEC_FULL.md's PID representation
// resolution replaces pointer-derived pids with a dense atomic counter, so
// that locality argument no longer holds and a tree buys nothing a map
// doesn't already give. Local gives the thread-local scheduler an unlocked
// map; Shared gives the work-stealable scheduler a sharded, mutex-guarded
// one.
type InactiveSet interface {
	Insert(d *Data)
	Remove(id pid.ID) (*Data, bool)
	Get(id pid.ID) (*Data, bool)
	Len() int
}

// LocalInactiveSet is single-owner and holds no lock: only the worker that
// owns it ever touches it.
type LocalInactiveSet struct {
	m map[pid.ID]*Data
}

// NewLocalInactiveSet returns an empty LocalInactiveSet.
func NewLocalInactiveSet() *LocalInactiveSet {
	return &LocalInactiveSet{m: make(map[pid.ID]*Data)}
}

func (s *LocalInactiveSet) Insert(d *Data) { s.m[d.Pid] = d }

func (s *LocalInactiveSet) Remove(id pid.ID) (*Data, bool) {
	d, ok := s.m[id]
	if ok {
		delete(s.m, id)
	}
	return d, ok
}

func (s *LocalInactiveSet) Get(id pid.ID) (*Data, bool) {
	d, ok := s.m[id]
	return d, ok
}

func (s *LocalInactiveSet) Len() int { return len(s.m) }

// sharedInactiveShards is the number of mutex-guarded buckets a
// SharedInactiveSet splits its processes across. It is a plain constant
// rather than something sized off worker count: contention here is bursty
// (spawn and wake-from-steal), not proportional to steady-state worker
// count.
const sharedInactiveShards = 16

type inactiveShard struct {
	mu sync.Mutex
	m  map[pid.ID]*Data
}

// SharedInactiveSet is safe for concurrent use by multiple workers
// stealing from and returning processes to the shared scheduler.
type SharedInactiveSet struct {
	shards [sharedInactiveShards]*inactiveShard
}

// NewSharedInactiveSet returns an empty SharedInactiveSet.
func NewSharedInactiveSet() *SharedInactiveSet {
	s := &SharedInactiveSet{}
	for i := range s.shards {
		s.shards[i] = &inactiveShard{m: make(map[pid.ID]*Data)}
	}
	return s
}

func (s *SharedInactiveSet) shardFor(id pid.ID) *inactiveShard {
	return s.shards[uint64(id)%sharedInactiveShards]
}

func (s *SharedInactiveSet) Insert(d *Data) {
	sh := s.shardFor(d.Pid)
	sh.mu.Lock()
	sh.m[d.Pid] = d
	sh.mu.Unlock()
}

func (s *SharedInactiveSet) Remove(id pid.ID) (*Data, bool) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	d, ok := sh.m[id]
	if ok {
		delete(sh.m, id)
	}
	return d, ok
}

func (s *SharedInactiveSet) Get(id pid.ID) (*Data, bool) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	d, ok := sh.m[id]
	return d, ok
}

func (s *SharedInactiveSet) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.m)
		sh.mu.Unlock()
	}
	return n
}
