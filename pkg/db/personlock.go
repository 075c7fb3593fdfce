package db

import (
	"sync"

	"github.com/jakechorley/duty-roster/pkg/core/model"
)

// personLocks hands out one mutex per personnel number.
// Mutexes are never released; the set is bounded by the size of the personnel list.
type personLocks struct {
	mu    sync.Mutex
	locks map[model.PersonnelNo]*sync.Mutex
}

func newPersonLocks() *personLocks {
	return &personLocks{locks: make(map[model.PersonnelNo]*sync.Mutex)}
}

func (p *personLocks) get(no model.PersonnelNo) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.locks[no]
	if !ok {
		l = &sync.Mutex{}
		p.locks[no] = l
	}
	return l
}
