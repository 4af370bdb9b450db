package inmemdb

import (
	"sync"

	"github.com/luct/reports/core/assignment"
	"github.com/luct/reports/core/rating"
	"github.com/luct/reports/core/report"
	"github.com/luct/reports/core/user"
)

type (
	// DB is a process-local store; each table guards its rows with its own lock.
	DB struct {
		user       *userTable
		report     *reportTable
		rating     *ratingTable
		assignment *assignmentTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	reportTable struct {
		mutex sync.RWMutex
		seq   int64
		table map[int64]*report.Report
	}

	ratingTable struct {
		mutex sync.RWMutex
		seq   int64
		table []rating.Rating
	}

	assignmentTable struct {
		mutex sync.RWMutex
		seq   int64
		table []assignment.Assignment
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		report:     &reportTable{table: make(map[int64]*report.Report)},
		rating:     &ratingTable{},
		assignment: &assignmentTable{},
	}
}
