// Copyright 2022 ZUP IT SERVICOS EM TECNOLOGIA E INOVACAO SA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pool wraps the ants goroutine pool used for file-level
// parallelism in the extraction engine.
package pool

import (
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultPoolSize is the number of files processed concurrently when
	// the caller doesn't size the pool.
	DefaultPoolSize = 10

	// ExpiryDuration is the interval used to clean up expired workers.
	ExpiryDuration = 10 * time.Second
)

// Pool is the alias of ants.Pool.
type Pool = ants.Pool

// NewPool instantiates a goroutine pool of poolSize workers, falling back
// to DefaultPoolSize when poolSize is zero or negative.
func NewPool(poolSize int) (*Pool, error) {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}

	return ants.NewPool(poolSize, ants.WithOptions(ants.Options{
		ExpiryDuration: ExpiryDuration,
	}))
}
