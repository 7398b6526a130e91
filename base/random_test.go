// Copyright 2020 gorse Project Authors
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

package base

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

func TestRandomGenerator_Permute(t *testing.T) {
	values := []int{10, 11, 12, 13, 14, 15, 16, 17}
	permuted := NewRandomGenerator(0).Permute(values)
	assert.Len(t, permuted, len(values))
	assert.True(t, mapset.NewSet(values...).Equal(mapset.NewSet(permuted...)))
	// input is left untouched
	assert.Equal(t, []int{10, 11, 12, 13, 14, 15, 16, 17}, values)
	// same seed, same permutation
	assert.Equal(t, permuted, NewRandomGenerator(0).Permute(values))
}

func TestRandomGenerator_PermuteEmpty(t *testing.T) {
	assert.Empty(t, NewTimeRandomGenerator().Permute(nil))
}
