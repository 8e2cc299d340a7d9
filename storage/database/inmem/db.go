// Package inmemdb provides map-backed repositories, used as the dev default
// and by the test suites.
package inmemdb

import (
	"sync"

	"github.com/trezcool/safestep/core/alert"
	"github.com/trezcool/safestep/core/training"
	"github.com/trezcool/safestep/core/user"
)

type (
	DB struct {
		user     *userTable
		training *trainingTable
		alert    *alertTable
	}

	userTable struct {
		t        map[int]*user.Principal
		sessions map[int]*user.SessionLog
		seq      int
		sessSeq  int
		mutex    sync.RWMutex
	}

	trainingTable struct {
		t           map[int]*training.Event
		enrollments map[int]*training.Enrollment
		attendance  map[int]*training.AttendanceRecord
		seq         int
		enrSeq      int
		attSeq      int
		mutex       sync.RWMutex
	}

	alertTable struct {
		t     map[int]*alert.Alert
		seq   int
		mutex sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{
			t:        make(map[int]*user.Principal),
			sessions: make(map[int]*user.SessionLog),
		},
		training: &trainingTable{
			t:           make(map[int]*training.Event),
			enrollments: make(map[int]*training.Enrollment),
			attendance:  make(map[int]*training.AttendanceRecord),
		},
		alert: &alertTable{t: make(map[int]*alert.Alert)},
	}
	return db, nil
}
