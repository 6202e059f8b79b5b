// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package workerpool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"
)

func TestWorkerPool(t *testing.T) {
	t.Run("With happy path", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		pool := New(WithSize(4))
		require.Equal(t, 4, pool.Size())
		pool.Start()
		pool.Start()

		executed := atomic.NewInt64(0)
		var wg sync.WaitGroup
		for range 1000 {
			wg.Add(1)
			require.NoError(t, pool.Submit(func() {
				defer wg.Done()
				executed.Inc()
			}))
		}
		wg.Wait()
		assert.EqualValues(t, 1000, executed.Load())

		pool.Stop()
		pool.Stop()
		assert.ErrorIs(t, pool.Submit(func() {}), ErrPoolStopped)
	})
	t.Run("When not started", func(t *testing.T) {
		pool := New()
		assert.ErrorIs(t, pool.Submit(func() {}), ErrPoolStopped)
		pool.Stop()
	})
	t.Run("With queued tasks run before stop returns", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		pool := New(WithSize(1))
		pool.Start()

		executed := atomic.NewInt64(0)
		for range 10 {
			require.NoError(t, pool.Submit(func() {
				time.Sleep(time.Millisecond)
				executed.Inc()
			}))
		}
		pool.Stop()
		assert.EqualValues(t, 10, executed.Load())
		assert.Zero(t, pool.Pending())
	})
	t.Run("With panicking task", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		recovered := make(chan any, 1)
		pool := New(WithSize(1), WithPanicHandler(func(r any) { recovered <- r }))
		pool.Start()

		require.NoError(t, pool.Submit(func() { panic("boom") }))
		done := make(chan struct{})
		require.NoError(t, pool.Submit(func() { close(done) }))

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("worker did not survive the panic")
		}
		assert.Equal(t, "boom", <-recovered)
		require.Eventually(t, func() bool { return pool.Busy() == 0 }, time.Second, 5*time.Millisecond)
		pool.Stop()
	})
	t.Run("With tasks submitted from tasks", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		pool := New(WithSize(2))
		pool.Start()

		done := make(chan struct{})
		require.NoError(t, pool.Submit(func() {
			_ = pool.Submit(func() { close(done) })
		}))
		<-done
		pool.Stop()
	})
}
