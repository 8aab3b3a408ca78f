package bootstrap

import (
	"testing"
	"time"

	"github.com/fulldump/biff"

	"github.com/fulldump/editdb/configuration"
)

func TestBootstrap(t *testing.T) {

	c := configuration.Default()
	c.HttpAddr = "127.0.0.1:0"
	c.Store = "memory"
	c.Dir = t.TempDir()

	start, stop, err := Bootstrap(c)
	biff.AssertNil(err)

	done := make(chan struct{})
	go func() {
		start()
		close(done)
	}()

	stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("start did not return after stop")
	}
}

func TestBootstrap_BadAddress(t *testing.T) {
	c := configuration.Default()
	c.HttpAddr = "not an address"
	c.Store = "memory"

	_, _, err := Bootstrap(c)
	biff.AssertNotNil(err)
}
