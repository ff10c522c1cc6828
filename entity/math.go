package entity

import (
	"fmt"
	"math/big"
	"strings"
)

// Float wraps a *big.Float so entity fields serialize as decimal strings
// and a zero value behaves like 0 instead of a nil pointer dereference.
type Float struct {
	f *big.Float
}

func NewFloat(f *big.Float) Float {
	return Float{f: f}
}

func NewFloatFromLiteral(f float64) Float {
	return Float{f: big.NewFloat(f)}
}

func (f Float) Float() *big.Float {
	if f.f == nil {
		return new(big.Float)
	}
	return f.f
}

func (f Float) Ptr() *Float { return &f }

func (f Float) String() string {
	return f.Float().Text('g', -1)
}

func (f Float) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

func (f *Float) UnmarshalJSON(data []byte) error {
	in := strings.Trim(string(data), `"`)
	if in == "" || in == "null" {
		f.f = new(big.Float)
		return nil
	}
	v, _, err := big.ParseFloat(in, 10, 100, big.ToNearestEven)
	if err != nil {
		return fmt.Errorf("parsing float %q: %w", in, err)
	}
	f.f = v
	return nil
}

// Int wraps a *big.Int with the same zero value and serialization
// conventions as Float.
type Int struct {
	i *big.Int
}

func NewInt(i *big.Int) Int {
	return Int{i: i}
}

func NewIntFromLiteral(i int64) Int {
	return Int{i: big.NewInt(i)}
}

func NewIntFromLiteralUnsigned(i uint64) Int {
	return Int{i: new(big.Int).SetUint64(i)}
}

func (i Int) Int() *big.Int {
	if i.i == nil {
		return new(big.Int)
	}
	return i.i
}

func (i Int) Ptr() *Int { return &i }

func (i Int) String() string {
	return i.Int().String()
}

func (i Int) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

func (i *Int) UnmarshalJSON(data []byte) error {
	in := strings.Trim(string(data), `"`)
	if in == "" || in == "null" {
		i.i = new(big.Int)
		return nil
	}
	v, ok := new(big.Int).SetString(in, 10)
	if !ok {
		return fmt.Errorf("parsing int %q", in)
	}
	i.i = v
	return nil
}

func FloatAdd(a, b Float) Float {
	return NewFloat(new(big.Float).Add(a.Float(), b.Float()))
}

func FloatSub(a, b Float) Float {
	return NewFloat(new(big.Float).Sub(a.Float(), b.Float()))
}

func FloatQuo(a, b Float) Float {
	return NewFloat(new(big.Float).Quo(a.Float(), b.Float()))
}

func IntAdd(a, b Int) Int {
	return NewInt(new(big.Int).Add(a.Int(), b.Int()))
}

// ConvertTokenToDecimal divides a raw token amount by 10^decimals.
func ConvertTokenToDecimal(amount *big.Int, decimals int64) *big.Float {
	if amount == nil {
		return new(big.Float)
	}
	value := new(big.Float).SetPrec(100).SetInt(amount)
	if decimals == 0 {
		return value
	}
	return value.Quo(value, exponentToBigFloat(decimals)).SetPrec(100)
}

func exponentToBigFloat(decimals int64) *big.Float {
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)
	return new(big.Float).SetPrec(100).SetInt(exp)
}
