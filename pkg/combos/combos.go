// Package combos enumerates the Cartesian product of configuration parameter options.
package combos

import (
	"iter"
	"math"
	"strings"

	"github.com/kataras/onshape-exporter/pkg/onshape"
)

// NameSeparator joins option display names into a combination name.
const NameSeparator = " x "

// Combination is one point of the Cartesian product of the selected parameters.
type Combination struct {
	Name        string
	Assignments []onshape.ParameterAssignment
}

// SkippedOption is an option left out of the product because it has no value.
type SkippedOption struct {
	ParameterName string
	OptionName    string
}

// Enumerate returns the Cartesian product of the usable options of params.
// Axes follow the order of params and the last parameter varies fastest.
// The sequence can be ranged over any number of times and always yields the same order.
// An empty params slice, or any parameter without usable options, yields nothing.
func Enumerate(params []onshape.ConfigParameter) iter.Seq[Combination] {
	axes := usableAxes(params)

	return func(yield func(Combination) bool) {
		if len(axes) == 0 {
			return
		}
		for _, axis := range axes {
			if len(axis) == 0 {
				return
			}
		}

		idx := make([]int, len(axes))
		for {
			if !yield(build(params, axes, idx)) {
				return
			}

			// Odometer increment, last axis first.
			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(axes[i]) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// Count returns the number of combinations Enumerate yields for params:
// the product of the usable option counts, saturated at math.MaxInt.
func Count(params []onshape.ConfigParameter) int {
	if len(params) == 0 {
		return 0
	}

	total := 1
	for _, axis := range usableAxes(params) {
		n := len(axis)
		if n == 0 {
			return 0
		}
		if total > math.MaxInt/n {
			total = math.MaxInt // saturate, the product does not fit an int
			continue
		}
		total *= n
	}
	return total
}

// Unusable lists the options Enumerate leaves out, in parameter order.
func Unusable(params []onshape.ConfigParameter) []SkippedOption {
	var skipped []SkippedOption
	for _, p := range params {
		for _, opt := range p.Options {
			if opt.Value == "" {
				skipped = append(skipped, SkippedOption{ParameterName: p.Name, OptionName: opt.Name})
			}
		}
	}
	return skipped
}

// Names returns the parameter names joined the same way combination names are.
// It describes which option fills each slot of a combination name.
func Names(params []onshape.ConfigParameter) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return strings.Join(names, NameSeparator)
}

func usableAxes(params []onshape.ConfigParameter) [][]onshape.ConfigOption {
	axes := make([][]onshape.ConfigOption, len(params))
	for i, p := range params {
		axis := make([]onshape.ConfigOption, 0, len(p.Options))
		for _, opt := range p.Options {
			if opt.Value != "" {
				axis = append(axis, opt)
			}
		}
		axes[i] = axis
	}
	return axes
}

func build(params []onshape.ConfigParameter, axes [][]onshape.ConfigOption, idx []int) Combination {
	names := make([]string, len(axes))
	assignments := make([]onshape.ParameterAssignment, len(axes))

	for i, axis := range axes {
		opt := axis[idx[i]]
		names[i] = opt.Name
		assignments[i] = onshape.ParameterAssignment{ParameterID: params[i].ID, Value: opt.Value}
	}

	return Combination{
		Name:        strings.Join(names, NameSeparator),
		Assignments: assignments,
	}
}
