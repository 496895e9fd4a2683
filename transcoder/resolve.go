package transcoder

import (
	"fmt"

	"github.com/wippyai/vb6-binary/errors"
	"github.com/wippyai/vb6-binary/schema"
	"github.com/wippyai/vb6-binary/transcoder/internal/layout"
)

// listShape is the resolved wire shape of one collection value.
type listShape struct {
	capacity int // M, elements on the wire
	width    int // E, bytes per element; innermost element for a matrix
	cols     int // C, inner capacity of a matrix
	matrix   bool
	measured bool
}

func newCalculator(cfg Config) *layout.Calculator {
	if cfg.SizeResolver == nil {
		return layout.NewCalculator(nil)
	}
	return layout.NewCalculator(layout.Resolver(cfg.SizeResolver))
}

func checkCapacity(phase errors.Phase, n int) error {
	if n > layout.MaxCapacity {
		return errors.UnsupportedShape(phase, nil, fmt.Sprintf("capacity %d exceeds limit %d", n, layout.MaxCapacity))
	}
	return nil
}

func resolveList(calc *layout.Calculator, phase errors.Phase, ct *CompiledType, capacity, elemSize int) (listShape, error) {
	if capacity <= 0 {
		return listShape{}, errors.MissingCapacity(phase, nil, "collection has no capacity")
	}
	if err := checkCapacity(phase, capacity); err != nil {
		return listShape{}, err
	}
	shape := listShape{capacity: capacity}

	if ct.IsMatrix() {
		inner := ct.Schema.Elem
		if inner.Elem.Kind == schema.KindList {
			return listShape{}, errors.UnsupportedShape(phase, nil, "more than two fixed dimensions")
		}
		if inner.Size <= 0 {
			return listShape{}, errors.MissingCapacity(phase, nil, "inner collection has no capacity")
		}
		if err := checkCapacity(phase, inner.Size); err != nil {
			return listShape{}, err
		}
		w, ok := calc.MatrixElemWidth(ct.Schema, elemSize)
		if !ok {
			return listShape{}, errors.MissingCapacity(phase, nil, "matrix elements have no fixed width")
		}
		if w == 0 {
			return listShape{}, errors.UnsupportedShape(phase, nil, "matrix elements have zero width")
		}
		if err := checkElemWidth(calc, phase, inner, w); err != nil {
			return listShape{}, err
		}
		if _, ok := calc.Width(ct.Schema, capacity, elemSize); !ok {
			return listShape{}, errors.UnsupportedShape(phase, nil, "matrix block exceeds size limit")
		}
		shape.matrix = true
		shape.cols = inner.Size
		shape.width = w
		return shape, nil
	}

	w, ok := calc.ElemWidth(ct.Schema, elemSize)
	if !ok {
		shape.measured = true
		return shape, nil
	}
	if err := checkElemWidth(calc, phase, ct.Schema, w); err != nil {
		return listShape{}, err
	}
	if _, ok := layout.SafeMul(capacity, w); !ok {
		return listShape{}, errors.UnsupportedShape(phase, nil, "collection exceeds size limit")
	}
	shape.width = w
	return shape, nil
}

// checkElemWidth rejects an element width narrower than the fixed width of
// the elements of list.
func checkElemWidth(calc *layout.Calculator, phase errors.Phase, list *schema.Type, w int) error {
	own, ok := calc.Width(list.Elem, list.Elem.Size, 0)
	if ok && w < own {
		return errors.UnsupportedShape(phase, nil,
			fmt.Sprintf("element width %d is narrower than the %d-byte element", w, own))
	}
	return nil
}

// elementCapacity is the capacity handed to each element: its own type
// size, else the element width for strings.
func elementCapacity(elem *schema.Type, width int) int {
	if elem.Size > 0 {
		return elem.Size
	}
	if elem.Kind == schema.KindString {
		return width
	}
	return 0
}
