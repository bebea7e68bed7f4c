// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package engine

import (
	"context"
	"fmt"

	"github.com/gorse-io/cinema/base/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Holder publishes an engine once it is built. Until then every Load fails
// with ErrNotReady.
type Holder struct {
	engine  atomic.Pointer[Engine]
	failure atomic.Error
}

// Store publishes an engine. Only the first engine is kept.
func (h *Holder) Store(e *Engine) bool {
	return h.engine.CompareAndSwap(nil, e)
}

// Fail records why the engine could not be built.
func (h *Holder) Fail(err error) {
	h.failure.Store(err)
}

// Load returns the published engine.
func (h *Holder) Load() (*Engine, error) {
	if e := h.engine.Load(); e != nil {
		return e, nil
	}
	if err := h.failure.Load(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return nil, ErrNotReady
}

func (h *Holder) Health() Health {
	return Health{Ready: h.engine.Load() != nil}
}

// Run builds an engine with init and publishes it. Failures are logged and
// recorded; the holder stays not ready.
func (h *Holder) Run(ctx context.Context, init func(ctx context.Context) (*Engine, error)) error {
	e, err := init(ctx)
	if err != nil {
		log.Logger().Error("failed to initialize recommender", zap.Error(err))
		h.Fail(err)
		return err
	}
	h.Store(e)
	return nil
}
