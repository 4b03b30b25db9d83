package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"frisbee/stdlib"
)

// stdRunner is a native standard-library implementation. It receives the
// argument window (receiver first for methods) and returns the words of
// its return value.
type stdRunner func(w *Worker, args []uint64) []uint64

// namedRunners maps every std symbol to its runner; buildRunners flattens
// it into the table indexed the same way the generator indexes symbols.
var namedRunners = map[string]stdRunner{
	"std::print": func(w *Worker, args []uint64) []uint64 {
		w.machine.printf("%s", w.heap.GetString(args[0]).Value)
		return nil
	},
	"std::println": func(w *Worker, args []uint64) []uint64 {
		w.machine.printf("%s\n", w.heap.GetString(args[0]).Value)
		return nil
	},
	"std::range": func(w *Worker, args []uint64) []uint64 {
		start := int64(args[0])
		end := int64(args[1])
		var items []uint64
		for i := start; i < end; i++ {
			items = append(items, uint64(i))
		}
		ref, _ := w.heap.AllocateList(stdlib.ListOfIntsKind, 1, len(items), items)
		return []uint64{ref}
	},
	"std::get_input": func(w *Worker, args []uint64) []uint64 {
		line, err := w.machine.Input()
		if err != nil {
			runtimeFail("failed to read input: %v", err)
		}
		return []uint64{w.heap.NewString(strings.TrimRight(line, "\r\n"))}
	},

	"std::Bool::to_string": func(w *Worker, args []uint64) []uint64 {
		s := "false"
		if args[0] != 0 {
			s = "true"
		}
		return []uint64{w.heap.NewString(s)}
	},

	"std::Int::to_float": func(w *Worker, args []uint64) []uint64 {
		return []uint64{floatBits(float64(int64(args[0])))}
	},
	"std::Int::to_string": func(w *Worker, args []uint64) []uint64 {
		return []uint64{w.heap.NewString(strconv.FormatInt(int64(args[0]), 10))}
	},
	"std::Int::abs": func(w *Worker, args []uint64) []uint64 {
		value := int64(args[0])
		if value < 0 {
			value = -value
		}
		return []uint64{uint64(value)}
	},

	"std::Float::to_string": func(w *Worker, args []uint64) []uint64 {
		return []uint64{w.heap.NewString(formatFloat(floatFromBits(args[0])))}
	},
	"std::Float::abs": func(w *Worker, args []uint64) []uint64 {
		return []uint64{floatBits(math.Abs(floatFromBits(args[0])))}
	},
	"std::Float::ceil": func(w *Worker, args []uint64) []uint64 {
		return []uint64{uint64(int64(math.Ceil(floatFromBits(args[0]))))}
	},
	"std::Float::floor": func(w *Worker, args []uint64) []uint64 {
		return []uint64{uint64(int64(math.Floor(floatFromBits(args[0]))))}
	},
	"std::Float::round": func(w *Worker, args []uint64) []uint64 {
		return []uint64{uint64(int64(math.Round(floatFromBits(args[0]))))}
	},

	"std::String::len": func(w *Worker, args []uint64) []uint64 {
		return []uint64{uint64(utf8.RuneCountInString(w.heap.GetString(args[0]).Value))}
	},
	"std::String::is_empty": func(w *Worker, args []uint64) []uint64 {
		return []uint64{boolWord(w.heap.GetString(args[0]).Value == "")}
	},
	"std::String::find": func(w *Worker, args []uint64) []uint64 {
		haystack := w.heap.GetString(args[0]).Value
		needle := w.heap.GetString(args[1]).Value
		byteIndex := strings.Index(haystack, needle)
		if byteIndex < 0 {
			return []uint64{0, 0}
		}
		runeIndex := utf8.RuneCountInString(haystack[:byteIndex])
		return []uint64{1, uint64(runeIndex)}
	},
	"std::String::contains": func(w *Worker, args []uint64) []uint64 {
		haystack := w.heap.GetString(args[0]).Value
		needle := w.heap.GetString(args[1]).Value
		return []uint64{boolWord(strings.Contains(haystack, needle))}
	},

	"std::List::push": func(w *Worker, args []uint64) []uint64 {
		list := w.heap.GetList(args[0])
		list.Data = append(list.Data, args[1:1+list.ItemSize]...)
		list.Count++
		return nil
	},
	"std::List::pop": func(w *Worker, args []uint64) []uint64 {
		list := w.heap.GetList(args[0])
		if list.Count == 0 {
			runtimeFail("pop from empty list")
		}
		list.Count--
		item := make([]uint64, list.ItemSize)
		copy(item, list.Data[list.Count*list.ItemSize:])
		list.Data = list.Data[:list.Count*list.ItemSize]
		return item
	},
	"std::List::len": func(w *Worker, args []uint64) []uint64 {
		return []uint64{uint64(w.heap.GetList(args[0]).Count)}
	},
	"std::List::is_empty": func(w *Worker, args []uint64) []uint64 {
		return []uint64{boolWord(w.heap.GetList(args[0]).Count == 0)}
	},
	"std::List::concat": func(w *Worker, args []uint64) []uint64 {
		left := w.heap.GetList(args[0])
		right := w.heap.GetList(args[1])
		data := make([]uint64, 0, len(left.Data)+len(right.Data))
		data = append(data, left.Data...)
		data = append(data, right.Data...)
		ref, _ := w.heap.AllocateList(left.Kind, left.ItemSize, left.Count+right.Count, data)
		return []uint64{ref}
	},
}

// formatFloat keeps whole floats with a trailing .0 marker, matching the
// source notation.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// buildRunners aligns the runner table with the generator's sorted symbol
// indexes.
func buildRunners() []stdRunner {
	names := stdlib.Names()
	runners := make([]stdRunner, len(names))
	for i, name := range names {
		runner, ok := namedRunners[name]
		if !ok {
			panic(fmt.Sprintf("std function %s has no native runner", name))
		}
		runners[i] = runner
	}
	return runners
}
