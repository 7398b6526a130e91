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
	"math"
	"math/bits"
	"slices"
	"sort"

	"github.com/gorse-io/tabular/base"
	"github.com/gorse-io/tabular/base/log"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DefaultTarget is the default name of the target column.
const DefaultTarget = "loan_status"

// SplitFeatureTarget splits a frame into features (all columns except target) and the target column.
func SplitFeatureTarget(data *Frame, target string) (*Frame, *Series, error) {
	y, err := data.Column(target)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	x, err := data.Drop(target)
	if err != nil {
		y.Release()
		return nil, nil, errors.Trace(err)
	}
	log.Logger().Info("split features and target",
		zap.String("target", target),
		zap.Ints("data_shape", []int{data.Len(), data.Width()}),
		zap.Ints("x_shape", []int{x.Len(), x.Width()}),
		zap.Ints("y_shape", []int{y.Len()}))
	return x, y, nil
}

type splitOptions struct {
	seed    int64
	hasSeed bool
}

// SplitOption configures SplitTrainTest.
type SplitOption func(*splitOptions)

// WithSeed makes the split reproducible.
func WithSeed(seed int64) SplitOption {
	return func(o *splitOptions) {
		o.seed = seed
		o.hasSeed = true
	}
}

// SplitTrainTest splits features and target into train and test sets. The
// split is stratified: the proportion of each target value is preserved in
// both sets as far as the set sizes allow. The test set holds
// ceil(testSize * n) rows. Row index labels are kept.
func SplitTrainTest(x *Frame, y *Series, testSize float64, opts ...SplitOption) (
	xTrain, xTest *Frame, yTrain, yTest *Series, err error) {
	options := splitOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	rng := base.NewTimeRandomGenerator()
	if options.hasSeed {
		rng = base.NewRandomGenerator(options.seed)
	}

	trainPositions, testPositions, err := stratifiedSplit(x, y, testSize, rng)
	if err != nil {
		return nil, nil, nil, nil, errors.Trace(err)
	}
	if xTrain, err = x.Take(trainPositions); err != nil {
		return nil, nil, nil, nil, errors.Trace(err)
	}
	if xTest, err = x.Take(testPositions); err != nil {
		xTrain.Release()
		return nil, nil, nil, nil, errors.Trace(err)
	}
	if yTrain, err = y.Take(trainPositions); err != nil {
		xTrain.Release()
		xTest.Release()
		return nil, nil, nil, nil, errors.Trace(err)
	}
	if yTest, err = y.Take(testPositions); err != nil {
		xTrain.Release()
		xTest.Release()
		yTrain.Release()
		return nil, nil, nil, nil, errors.Trace(err)
	}
	log.Logger().Info("split train and test",
		zap.Float64("test_size", testSize),
		zap.Ints("x_train_shape", []int{xTrain.Len(), xTrain.Width()}),
		zap.Ints("x_test_shape", []int{xTest.Len(), xTest.Width()}),
		zap.Ints("y_train_shape", []int{yTrain.Len()}),
		zap.Ints("y_test_shape", []int{yTest.Len()}))
	return
}

// stratifiedSplit returns row positions of the train set and the test set.
func stratifiedSplit(x *Frame, y *Series, testSize float64, rng base.RandomGenerator) ([]int, []int, error) {
	if x.Len() != y.Len() {
		return nil, nil, errors.NotValidf("%d rows of features with %d rows of target", x.Len(), y.Len())
	}
	if !slices.Equal(x.index, y.index) {
		return nil, nil, errors.NotValidf("row index of features and target")
	}
	if math.IsNaN(testSize) || testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NotValidf("test size %v out of range (0, 1)", testSize)
	}
	n := y.Len()
	numTest := int(math.Ceil(testSize*float64(n) - 1e-9))
	numTrain := n - numTest

	// group positions by class in order of first appearance
	var (
		classes   []any
		positions [][]int
	)
	classIndex := make(map[any]int)
	for i := 0; i < n; i++ {
		key := classKey(y.Value(i))
		c, exist := classIndex[key]
		if !exist {
			c = len(classes)
			classIndex[key] = c
			classes = append(classes, key)
			positions = append(positions, nil)
		}
		positions[c] = append(positions[c], i)
	}
	counts := lo.Map(positions, func(p []int, _ int) int {
		return len(p)
	})
	if minCount := lo.Min(counts); minCount < 2 {
		return nil, nil, errors.NotValidf("the least populated class in target has only %d member, "+
			"which is too few to stratify", minCount)
	}
	if numTest < len(classes) {
		return nil, nil, errors.NotValidf("test size %d smaller than the number of classes %d", numTest, len(classes))
	}
	if numTrain < len(classes) {
		return nil, nil, errors.NotValidf("train size %d smaller than the number of classes %d", numTrain, len(classes))
	}

	testCounts := apportion(counts, numTest, rng)
	train := make([]int, 0, numTrain)
	test := make([]int, 0, numTest)
	for c := range classes {
		permuted := rng.Permute(positions[c])
		test = append(test, permuted[:testCounts[c]]...)
		train = append(train, permuted[testCounts[c]:]...)
	}
	return rng.Permute(train), rng.Permute(test), nil
}

// apportion distributes n draws over classes proportionally to counts. Each
// class gets the floor of its share; the remaining draws go to the classes
// with the largest remainders, ties broken at random.
func apportion(counts []int, n int, rng base.RandomGenerator) []int {
	total := uint64(lo.Sum(counts))
	allocated := make([]int, len(counts))
	remainders := make([]uint64, len(counts))
	for i, count := range counts {
		// n * count in 128 bits, the quotient fits since n <= total
		hi, low := bits.Mul64(uint64(n), uint64(count))
		quotient, remainder := bits.Div64(hi, low, total)
		allocated[i] = int(quotient)
		remainders[i] = remainder
	}
	need := n - lo.Sum(allocated)
	if need == 0 {
		return allocated
	}
	order := rng.Permute(lo.Range(len(counts)))
	sort.SliceStable(order, func(i, j int) bool {
		return remainders[order[i]] > remainders[order[j]]
	})
	for _, c := range order[:need] {
		allocated[c]++
	}
	return allocated
}
