package ws

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rzbill/relay/pkg/log"
)

// fakeSocket records frames; fail makes every write error.
type fakeSocket struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
}

func (f *fakeSocket) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

func (f *fakeSocket) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeSocket) Close() error                     { return nil }

func (f *fakeSocket) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestRegistrySendUnknownConnection(t *testing.T) {
	r := NewRegistry(time.Second, log.NewNopLogger())
	if r.Send(context.Background(), "nope", []byte("x")) {
		t.Fatalf("send to unknown connection reported success")
	}
}

func TestRegistrySendAndUnregister(t *testing.T) {
	r := NewRegistry(time.Second, log.NewNopLogger())
	sock := &fakeSocket{}
	r.Register("c1", sock)

	if !r.Send(context.Background(), "c1", []byte("hello")) {
		t.Fatalf("send failed")
	}
	if sock.count() != 1 {
		t.Fatalf("frames = %d", sock.count())
	}

	r.Unregister("c1")
	if r.Send(context.Background(), "c1", []byte("again")) {
		t.Fatalf("send after unregister reported success")
	}
	if r.Len() != 0 {
		t.Fatalf("len = %d", r.Len())
	}
}

func TestRegistryWriteErrorReportsFalse(t *testing.T) {
	r := NewRegistry(time.Second, log.NewNopLogger())
	r.Register("c1", &fakeSocket{fail: true})
	if r.Send(context.Background(), "c1", []byte("x")) {
		t.Fatalf("failed write reported success")
	}
	// The connection stays registered; teardown belongs to the read loop.
	if r.Len() != 1 {
		t.Fatalf("len = %d", r.Len())
	}
}

func TestRegistryConcurrentSends(t *testing.T) {
	r := NewRegistry(time.Second, log.NewNopLogger())
	sock := &fakeSocket{}
	r.Register("c1", sock)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Send(context.Background(), "c1", []byte("x"))
		}()
	}
	wg.Wait()
	if sock.count() != 16 {
		t.Fatalf("frames = %d", sock.count())
	}
}
