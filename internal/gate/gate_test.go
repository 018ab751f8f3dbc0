package gate

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadersRunInParallel(t *testing.T) {
	g := New()
	var concurrent int32
	var maxConcurrent int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.RLock()
			defer g.RUnlock()
			n := atomic.AddInt32(&concurrent, 1)
			for {
				m := atomic.LoadInt32(&maxConcurrent)
				if n <= m || atomic.CompareAndSwapInt32(&maxConcurrent, m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&concurrent, -1)
		}()
	}
	wg.Wait()
	require.Greater(t, atomic.LoadInt32(&maxConcurrent), int32(1), "readers should overlap")
}

func TestWriterExcludesReadersAndOtherWriters(t *testing.T) {
	g := New()
	var active int32
	var wg sync.WaitGroup
	var violations int32

	work := func(isWriter bool) {
		defer wg.Done()
		if isWriter {
			g.Lock()
			defer g.Unlock()
		} else {
			g.RLock()
			defer g.RUnlock()
		}
		n := atomic.AddInt32(&active, 1)
		if isWriter && n != 1 {
			atomic.AddInt32(&violations, 1)
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&active, -1)
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go work(false)
	}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go work(true)
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go work(false)
	}
	wg.Wait()
	require.Equal(t, int32(0), violations)
}

func TestWriterPreventsNewReaderStarvationOfWriter(t *testing.T) {
	g := New()
	g.RLock() // one long-lived reader

	writerDone := make(chan struct{})
	go func() {
		g.Lock()
		close(writerDone)
		g.Unlock()
	}()

	// give the writer a chance to register as waiting
	time.Sleep(5 * time.Millisecond)

	readerBlocked := make(chan struct{})
	go func() {
		g.RLock()
		defer g.RUnlock()
		close(readerBlocked)
	}()

	select {
	case <-readerBlocked:
		t.Fatal("new reader should not be admitted while a writer is waiting")
	case <-time.After(20 * time.Millisecond):
	}

	g.RUnlock() // drain the original reader; writer should now proceed
	select {
	case <-writerDone:
	case <-time.After(time.Second):
		t.Fatal("writer never admitted after readers drained")
	}
	<-readerBlocked
}
