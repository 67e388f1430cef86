package builder

import (
	"github.com/teranos/buildergen/naming"
	"github.com/teranos/buildergen/shape"
)

// Registration queues a nested shape found while building its owner.
type Registration struct {
	// Name is the shape name the nested builder is named after.
	Name  string
	Shape *shape.Shape
	// TypeText is the owner field's type with every array level and
	// pointer removed, as the owner's package spells it.
	TypeText string
	Owner    string
	Field    string
}

// Discover registers every object-referenced field of owner, including
// slices and pointers of object types. The slice itself never gets a
// builder; its element does.
func Discover(owner string, fields []shape.Field) []Registration {
	var regs []Registration
	for _, f := range fields {
		if !f.IsObjectReference() {
			continue
		}
		regs = append(regs, Registration{
			Name:     naming.NestedShapeName(owner, f.Name, f.Decl, f.TypeText),
			Shape:    f.Nested,
			TypeText: naming.ElementTypeText(f.TypeText),
			Owner:    owner,
			Field:    f.Name,
		})
	}
	return regs
}
