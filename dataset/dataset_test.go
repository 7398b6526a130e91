// Copyright 2025 gorse Project Authors
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

package dataset

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInt64Array(values ...int64) arrow.Array {
	builder := array.NewInt64Builder(memory.DefaultAllocator)
	defer builder.Release()
	builder.AppendValues(values, nil)
	return builder.NewArray()
}

func newStringArray(values ...string) arrow.Array {
	builder := array.NewStringBuilder(memory.DefaultAllocator)
	defer builder.Release()
	builder.AppendValues(values, nil)
	return builder.NewArray()
}

func newTestFrame(t *testing.T) *Frame {
	age := newInt64Array(25, 30, 35, 40)
	defer age.Release()
	name := newStringArray("a", "b", "c", "d")
	defer name.Release()
	status := newInt64Array(0, 1, 0, 1)
	defer status.Release()
	frame, err := NewFrame([]string{"age", "name", "loan_status"},
		[]arrow.Array{age, name, status}, []int64{10, 11, 12, 13})
	require.NoError(t, err)
	return frame
}

func TestNewFrame(t *testing.T) {
	frame := newTestFrame(t)
	defer frame.Release()
	rows, cols := frame.Shape()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []string{"age", "name", "loan_status"}, frame.Names())
	assert.Equal(t, []int64{10, 11, 12, 13}, frame.Index())
	assert.True(t, frame.HasColumn("name"))
	assert.False(t, frame.HasColumn("income"))

	// mismatched lengths
	short := newInt64Array(1)
	defer short.Release()
	_, err := NewFrame([]string{"a"}, []arrow.Array{short}, RangeIndex(2))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewFrame([]string{"a", "b"}, []arrow.Array{short}, RangeIndex(1))
	assert.True(t, errors.Is(err, errors.NotValid))
	// duplicate names
	_, err = NewFrame([]string{"a", "a"}, []arrow.Array{short, short}, RangeIndex(1))
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestFrame_Column(t *testing.T) {
	frame := newTestFrame(t)
	defer frame.Release()
	name, err := frame.Column("name")
	require.NoError(t, err)
	defer name.Release()
	assert.Equal(t, "name", name.Name())
	assert.Equal(t, []int64{10, 11, 12, 13}, name.Index())
	assert.Equal(t, "c", name.Value(2))
	assert.Equal(t, arrow.BinaryTypes.String, name.DataType())

	_, err = frame.Column("income")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestFrame_Drop(t *testing.T) {
	frame := newTestFrame(t)
	defer frame.Release()
	dropped, err := frame.Drop("name")
	require.NoError(t, err)
	defer dropped.Release()
	assert.Equal(t, []string{"age", "loan_status"}, dropped.Names())
	assert.Equal(t, frame.Index(), dropped.Index())
	// the original frame is untouched
	assert.Equal(t, []string{"age", "name", "loan_status"}, frame.Names())

	_, err = frame.Drop("income")
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestFrame_Take(t *testing.T) {
	frame := newTestFrame(t)
	defer frame.Release()
	taken, err := frame.Take([]int{3, 1})
	require.NoError(t, err)
	defer taken.Release()
	assert.Equal(t, []int64{13, 11}, taken.Index())
	name, err := taken.Column("name")
	require.NoError(t, err)
	defer name.Release()
	assert.Equal(t, "d", name.Value(0))
	assert.Equal(t, "b", name.Value(1))

	// out of range
	_, err = frame.Take([]int{4})
	assert.Error(t, err)
}

func TestFrame_Equal(t *testing.T) {
	a := newTestFrame(t)
	defer a.Release()
	b := newTestFrame(t)
	defer b.Release()
	assert.True(t, a.Equal(b))
	c, err := b.Take([]int{0, 1, 2, 3})
	require.NoError(t, err)
	defer c.Release()
	assert.True(t, a.Equal(c))
	d, err := b.Take([]int{1, 0, 2, 3})
	require.NoError(t, err)
	defer d.Release()
	assert.False(t, a.Equal(d))
}

func TestSeries(t *testing.T) {
	values := array.NewFloat64Builder(memory.DefaultAllocator)
	values.AppendValues([]float64{1.5, 2.5}, nil)
	values.AppendNull()
	arr := values.NewArray()
	values.Release()
	defer arr.Release()

	series, err := NewSeries("income", arr, []int64{5, 6, 7})
	require.NoError(t, err)
	defer series.Release()
	assert.Equal(t, 3, series.Len())
	assert.Equal(t, 1.5, series.Value(0))
	assert.Nil(t, series.Value(2))

	taken, err := series.Take([]int{2, 0})
	require.NoError(t, err)
	defer taken.Release()
	assert.Equal(t, []int64{7, 5}, taken.Index())
	assert.Nil(t, taken.Value(0))
	assert.Equal(t, 1.5, taken.Value(1))
	assert.False(t, series.Equal(taken))

	_, err = NewSeries("income", arr, RangeIndex(2))
	assert.True(t, errors.Is(err, errors.NotValid))
}
