package inmemdb

import (
	"sync"

	"github.com/trezcool/tutorboard/core/whiteboard"
)

type (
	DB struct {
		attempt *attemptTable
	}

	attemptTable struct {
		sync.RWMutex
		table map[string]*whiteboard.Attempt
		order []string // insertion order
	}
)

func Open() *DB {
	return &DB{
		attempt: &attemptTable{table: make(map[string]*whiteboard.Attempt)},
	}
}
