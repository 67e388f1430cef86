package builder

import (
	"go/types"
	"hash/fnv"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/teranos/buildergen/shape"
)

const placeholderLetters = 8

// Faker produces placeholder initializers. Values are seeded per field, so
// the same shape field always gets the same literal for a given seed.
type Faker struct {
	seed uint64
}

// NewFaker returns a Faker mixing seed into every per-field stream.
func NewFaker(seed uint64) *Faker {
	return &Faker{seed: seed}
}

func (f *Faker) source(key string) *gofakeit.Faker {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return gofakeit.New(h.Sum64() ^ f.seed)
}

// Value returns the initializer expression for field. key identifies the
// field across runs, usually "<shape ID>.<field>".
func (f *Faker) Value(key string, field shape.Field) string {
	c := field.Class
	switch {
	case c.Nullable:
		return "nil"
	case c.Kind == shape.KindArray:
		return field.TypeText + "{}"
	case c.Builtin == "time.Time":
		return "time.Now()"
	case c.Kind == shape.KindPrimitive && isString(c.Basic):
		return strconv.Quote(f.source(key).LetterN(placeholderLetters))
	case c.Kind == shape.KindPrimitive && isNumber(c.Basic):
		return strconv.Itoa(f.source(key).IntRange(1, maxLiteral(c.Basic)))
	case c.Kind == shape.KindPrimitive && c.Basic == types.Bool:
		return strconv.FormatBool(f.source(key).Bool())
	case c.Composite:
		return field.TypeText + "{}"
	default:
		return "nil"
	}
}

func isString(k types.BasicKind) bool {
	return k == types.String
}

func isNumber(k types.BasicKind) bool {
	return k != types.Invalid && types.Typ[k].Info()&types.IsNumeric != 0
}

// maxLiteral keeps integer placeholders representable in the field's type.
func maxLiteral(k types.BasicKind) int {
	switch k {
	case types.Int8:
		return 127
	case types.Uint8:
		return 255
	case types.Int16:
		return 32767
	case types.Uint16:
		return 65535
	default:
		return 1_000_000
	}
}
