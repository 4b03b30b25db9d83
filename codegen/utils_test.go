package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"frisbee/types"
)

func TestTypeSizes(t *testing.T) {
	assert.Equal(t, 1, TypeSize(types.Int))
	assert.Equal(t, 1, TypeSize(types.Float))
	assert.Equal(t, 1, TypeSize(types.Bool))
	assert.Equal(t, 1, TypeSize(types.String))
	assert.Equal(t, 1, TypeSize(types.ListOf(types.TupleOf(types.Int, types.Int))))
	assert.Equal(t, 1, TypeSize(types.CustomOf("main::Point")))

	assert.Equal(t, 0, TypeSize(types.Void()))
	assert.Equal(t, 3, TypeSize(types.TupleOf(types.Int, types.Float, types.Bool)))
	assert.Equal(t, 2, TypeSize(types.MaybeOf(types.Int)))
	assert.Equal(t, 4, TypeSize(types.MaybeOf(types.TupleOf(types.Int, types.MaybeOf(types.Bool)))))
}

func TestTupleOffsets(t *testing.T) {
	// (Int, ((Float, SomeType), String), ((Int, Int), [SomeType]))
	testType := types.TupleOf(
		types.Int,
		types.TupleOf(
			types.TupleOf(types.Float, types.CustomOf("SomeType")),
			types.String,
		),
		types.TupleOf(
			types.TupleOf(types.Int, types.Int),
			types.ListOf(types.CustomOf("SomeType")),
		),
	)

	assert.Equal(t, 0, TupleOffset(testType, nil))
	assert.Equal(t, 0, TupleOffset(testType, []int{0}))
	assert.Equal(t, 1, TupleOffset(testType, []int{1}))       // skip int
	assert.Equal(t, 3, TupleOffset(testType, []int{1, 1}))    // skip int, float and SomeType
	assert.Equal(t, 4, TupleOffset(testType, []int{2}))       // skip first two components
	assert.Equal(t, 4, TupleOffset(testType, []int{2, 0}))    // same spot
	assert.Equal(t, 5, TupleOffset(testType, []int{2, 0, 1})) // one int further
	assert.Equal(t, 6, TupleOffset(testType, []int{2, 1}))    // past the inner tuple
}

func TestTupleOffsetsForMaybe(t *testing.T) {
	// (Int?, (Float, SomeType))?
	testType := types.MaybeOf(types.TupleOf(
		types.MaybeOf(types.Int),
		types.TupleOf(types.Float, types.CustomOf("SomeType")),
	))

	assert.Equal(t, 0, TupleOffset(testType, nil))
	assert.Equal(t, 0, TupleOffset(testType, []int{0}))          // the flag itself
	assert.Equal(t, 1, TupleOffset(testType, []int{1}))          // skip outer flag
	assert.Equal(t, 2, TupleOffset(testType, []int{1, 0, 1}))    // skip outer + inner flag
	assert.Equal(t, 3, TupleOffset(testType, []int{1, 1}))       // skip both flags + Int? value
	assert.Equal(t, 4, TupleOffset(testType, []int{1, 1, 1}))    // one float further
}

func TestTupleSubitemSizes(t *testing.T) {
	testType := types.TupleOf(types.Int, types.TupleOf(types.Float, types.Bool))
	assert.Equal(t, 3, TupleSubitemSize(testType, nil))
	assert.Equal(t, 1, TupleSubitemSize(testType, []int{0}))
	assert.Equal(t, 2, TupleSubitemSize(testType, []int{1}))
	assert.Equal(t, 1, TupleSubitemSize(testType, []int{1, 1}))

	maybeType := types.MaybeOf(types.Int)
	assert.Equal(t, 1, TupleSubitemSize(maybeType, []int{0}))
	assert.Equal(t, 1, TupleSubitemSize(maybeType, []int{1}))
}

func TestPointerMaps(t *testing.T) {
	isActive := func(name string) bool { return name == "main::Active" }

	assert.Empty(t, PointersMapForType(types.Int, isActive))
	assert.Equal(t, []int{0}, PointersMapForType(types.String, isActive))
	assert.Equal(t, []int{0}, PointersMapForType(types.ListOf(types.Int), isActive))
	assert.Equal(t, []int{0}, PointersMapForType(types.CustomOf("main::Passive"), isActive))

	// active references travel by identity, not as heap pointers
	assert.Empty(t, PointersMapForType(types.CustomOf("main::Active"), isActive))

	// maybe payload sits behind its flag
	assert.Equal(t, []int{1}, PointersMapForType(types.MaybeOf(types.String), isActive))

	sequence := []types.Type{
		types.Int,
		types.String,
		types.TupleOf(types.Bool, types.ListOf(types.Int)),
		types.MaybeOf(types.CustomOf("main::Passive")),
	}
	assert.Equal(t, []int{1, 3, 5}, PointersMapForSequence(sequence, isActive))
}
