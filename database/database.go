package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fulldump/editdb/dataportal"
	"github.com/fulldump/editdb/model"
	"github.com/fulldump/editdb/store"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

type Config struct {
	Store string // memory, bolt, sqlite or postgres
	Dir   string
	DSN   string

	Registerer prometheus.Registerer
	Logf       func(format string, args ...any)
}

// Database owns the document store and the local dispatcher the model
// factories are registered in.
type Database struct {
	Config *Config
	Store  store.Store
	Portal *dataportal.Local

	mutex    sync.RWMutex
	status   string
	exit     chan struct{}
	stopOnce sync.Once
}

func NewDatabase(config *Config) *Database {
	return &Database{
		Config: config,
		status: StatusOpening,
		exit:   make(chan struct{}),
	}
}

func (db *Database) GetStatus() string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.status
}

func (db *Database) setStatus(status string) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.status = status
}

func (db *Database) logf(format string, args ...any) {
	if db.Config.Logf != nil {
		db.Config.Logf(format, args...)
	}
}

func (db *Database) Load() error {
	db.logf("opening %s store (dir '%s')", storeName(db.Config.Store), db.Config.Dir)

	s, err := store.Open(context.Background(), db.Config.Store, db.Config.Dir, db.Config.DSN)
	if err != nil {
		db.setStatus(StatusClosing)
		return fmt.Errorf("open store: %w", err)
	}

	portal := dataportal.NewLocal(&dataportal.Options{
		Registerer: db.Config.Registerer,
		Logf:       db.Config.Logf,
	})
	model.Register(portal, s, db.Config.Logf)

	db.mutex.Lock()
	defer db.mutex.Unlock()
	if db.status == StatusClosing {
		// stopped while opening
		return s.Close()
	}
	db.Store = s
	db.Portal = portal
	db.status = StatusOperating

	return nil
}

func storeName(name string) string {
	if name == "" {
		return "memory"
	}
	return name
}

func (db *Database) Start() error {
	go func() {
		err := db.Load()
		if err != nil {
			db.logf("ERROR: %s", err.Error())
		}
	}()

	<-db.exit

	return nil
}

func (db *Database) Stop() error {
	var err error
	db.stopOnce.Do(func() {
		defer close(db.exit)

		db.setStatus(StatusClosing)

		db.mutex.RLock()
		s := db.Store
		db.mutex.RUnlock()
		if s == nil {
			return
		}
		db.logf("closing store...")
		err = s.Close()
		if err != nil {
			db.logf("ERROR: close store: %s", err.Error())
		}
	})
	return err
}
