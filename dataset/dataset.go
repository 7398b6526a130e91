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
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Data is either a *Frame or a *Series.
type Data interface {
	Len() int
	Index() []int64
	Release()
}

// RangeIndex returns the row index [0, ..., n-1].
func RangeIndex(n int) []int64 {
	index := make([]int64, n)
	for i := range index {
		index[i] = int64(i)
	}
	return index
}

// Frame is an immutable table of named, row-aligned columns sharing one row index.
//
// Columns are reference counted arrow arrays. A Frame owns one reference to
// each of its columns and gives them back on Release.
type Frame struct {
	names   []string
	columns []arrow.Array
	index   []int64
}

// NewFrame creates a frame. The frame retains the columns, so callers still
// release their own references.
func NewFrame(names []string, columns []arrow.Array, index []int64) (*Frame, error) {
	if len(names) != len(columns) {
		return nil, errors.NotValidf("%d names for %d columns", len(names), len(columns))
	}
	if mapset.NewSet(names...).Cardinality() != len(names) {
		return nil, errors.NotValidf("duplicate column names %v", names)
	}
	for i, column := range columns {
		if column.Len() != len(index) {
			return nil, errors.NotValidf("column %q with %d rows for an index of %d rows",
				names[i], column.Len(), len(index))
		}
	}
	for _, column := range columns {
		column.Retain()
	}
	return &Frame{
		names:   slices.Clone(names),
		columns: slices.Clone(columns),
		index:   slices.Clone(index),
	}, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.index)
}

// Width returns the number of columns.
func (f *Frame) Width() int {
	return len(f.columns)
}

// Shape returns the number of rows and columns.
func (f *Frame) Shape() (int, int) {
	return f.Len(), f.Width()
}

// Names returns the column names in order.
func (f *Frame) Names() []string {
	return slices.Clone(f.names)
}

// Index returns the row index.
func (f *Frame) Index() []int64 {
	return slices.Clone(f.index)
}

// Columns returns the underlying arrays. They are borrowed from the frame.
func (f *Frame) Columns() []arrow.Array {
	return slices.Clone(f.columns)
}

func (f *Frame) HasColumn(name string) bool {
	return lo.Contains(f.names, name)
}

// Column returns the named column as a series sharing the frame's row index.
func (f *Frame) Column(name string) (*Series, error) {
	i := lo.IndexOf(f.names, name)
	if i < 0 {
		return nil, errors.NotFoundf("column %q", name)
	}
	return NewSeries(name, f.columns[i], f.index)
}

// Drop returns a new frame without the named column.
func (f *Frame) Drop(name string) (*Frame, error) {
	i := lo.IndexOf(f.names, name)
	if i < 0 {
		return nil, errors.NotFoundf("column %q", name)
	}
	return NewFrame(slices.Delete(slices.Clone(f.names), i, i+1),
		slices.Delete(slices.Clone(f.columns), i, i+1), f.index)
}

// Take returns a new frame with rows at the given positions, keeping their index labels.
func (f *Frame) Take(positions []int) (*Frame, error) {
	columns := make([]arrow.Array, 0, len(f.columns))
	defer func() {
		for _, column := range columns {
			column.Release()
		}
	}()
	for _, column := range f.columns {
		taken, err := take(column, positions)
		if err != nil {
			return nil, errors.Trace(err)
		}
		columns = append(columns, taken)
	}
	return NewFrame(f.names, columns, takeIndex(f.index, positions))
}

// Equal reports whether two frames have the same names, types, values and row index.
func (f *Frame) Equal(other *Frame) bool {
	if !slices.Equal(f.names, other.names) || !slices.Equal(f.index, other.index) {
		return false
	}
	for i := range f.columns {
		if !array.Equal(f.columns[i], other.columns[i]) {
			return false
		}
	}
	return true
}

func (f *Frame) Release() {
	for _, column := range f.columns {
		column.Release()
	}
	f.columns = nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame%v(%d, %d)", f.names, f.Len(), f.Width())
}

// Series is an immutable named column with its row index.
type Series struct {
	name   string
	values arrow.Array
	index  []int64
}

// NewSeries creates a series. The series retains values.
func NewSeries(name string, values arrow.Array, index []int64) (*Series, error) {
	if values.Len() != len(index) {
		return nil, errors.NotValidf("series %q with %d values for an index of %d rows",
			name, values.Len(), len(index))
	}
	values.Retain()
	return &Series{
		name:   name,
		values: values,
		index:  slices.Clone(index),
	}, nil
}

func (s *Series) Name() string {
	return s.name
}

func (s *Series) Len() int {
	return len(s.index)
}

func (s *Series) Index() []int64 {
	return slices.Clone(s.index)
}

// Values returns the underlying array. It is borrowed from the series.
func (s *Series) Values() arrow.Array {
	return s.values
}

func (s *Series) DataType() arrow.DataType {
	return s.values.DataType()
}

// Value returns the value at position i as int64, float64, bool or string, or nil if null.
func (s *Series) Value(i int) any {
	if s.values.IsNull(i) {
		return nil
	}
	switch typed := s.values.(type) {
	case *array.Int64:
		return typed.Value(i)
	case *array.Float64:
		return typed.Value(i)
	case *array.Boolean:
		return typed.Value(i)
	case *array.String:
		return typed.Value(i)
	default:
		return typed.GetOneForMarshal(i)
	}
}

// Take returns a new series with values at the given positions, keeping their index labels.
func (s *Series) Take(positions []int) (*Series, error) {
	taken, err := take(s.values, positions)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer taken.Release()
	return NewSeries(s.name, taken, takeIndex(s.index, positions))
}

// Equal reports whether two series have the same name, type, values and row index.
func (s *Series) Equal(other *Series) bool {
	return s.name == other.name &&
		slices.Equal(s.index, other.index) &&
		array.Equal(s.values, other.values)
}

func (s *Series) Release() {
	if s.values != nil {
		s.values.Release()
		s.values = nil
	}
}

func (s *Series) String() string {
	return fmt.Sprintf("Series[%s](%d)", s.name, s.Len())
}

func take(values arrow.Array, positions []int) (arrow.Array, error) {
	builder := array.NewInt64Builder(memory.DefaultAllocator)
	defer builder.Release()
	for _, position := range positions {
		builder.Append(int64(position))
	}
	indices := builder.NewArray()
	defer indices.Release()
	return compute.TakeArray(context.Background(), values, indices)
}

func takeIndex(index []int64, positions []int) []int64 {
	return lo.Map(positions, func(position int, _ int) int64 {
		return index[position]
	})
}

// classKey maps a value to a comparable key. NaN values share one key, byte
// slices and other unhashable values are keyed by their content.
func classKey(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(typed) {
			return nanKey{}
		}
	case []byte:
		return bytesKey(typed)
	case json.RawMessage:
		return bytesKey(typed)
	}
	if !reflect.TypeOf(value).Comparable() {
		return textKey(fmt.Sprint(value))
	}
	return value
}

type (
	nanKey   struct{}
	bytesKey string
	textKey  string
)
