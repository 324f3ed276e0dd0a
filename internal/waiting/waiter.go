/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package waiting

import (
	"github.com/go-errors/errors"
	"sync"
	"time"
)

var ErrWaiterTimeout = errors.New("waiter timed out")

// Waiter is a one-shot signal. Signal can be called repeatedly, every
// waiter is released by the first call.
type Waiter struct {
	once sync.Once
	done chan struct{}
}

func NewWaiter() *Waiter {
	return &Waiter{
		done: make(chan struct{}),
	}
}

func (w *Waiter) Signal() {
	w.once.Do(func() {
		close(w.done)
	})
}

func (w *Waiter) Signaled() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

func (w *Waiter) Chan() <-chan struct{} {
	return w.done
}

func (w *Waiter) Await() {
	<-w.done
}

// AwaitWithTimeout returns ErrWaiterTimeout if the waiter wasn't
// signaled in time.
func (w *Waiter) AwaitWithTimeout(
	timeout time.Duration,
) error {

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		return nil
	case <-timer.C:
		return ErrWaiterTimeout
	}
}
