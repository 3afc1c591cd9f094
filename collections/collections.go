// Package collections provides index-based iteration helpers for slices.
//
// Iterate and ReverseIterate read the slice length on every step, so the
// callback may modify the slice it receives through a pointer. ReverseIterate
// is the safe choice when the callback removes the current element.
package collections

// Iterate calls action for every element of *items in index order.
// The length is re-read on each step, so elements appended by action are visited.
func Iterate[T any](items *[]T, action func(item T, index int)) {
	for i := 0; i < len(*items); i++ {
		action((*items)[i], i)
	}
}

// ReverseIterate calls action for every element of *items from the last
// index down to zero. Removing the current element inside action is safe.
func ReverseIterate[T any](items *[]T, action func(item T, index int)) {
	for i := len(*items) - 1; i >= 0; i-- {
		if i >= len(*items) {
			continue
		}
		action((*items)[i], i)
	}
}

// ForEach calls action for every element of items.
func ForEach[T any](items []T, action func(item T)) {
	for _, item := range items {
		action(item)
	}
}
