package constant

import (
	"fmt"
	"math/big"
	"strings"
)

const (
	decimalSignMask  = 0x80000000
	decimalScaleMask = 0x00FF0000
	decimalScaleBits = 16

	// MaxDecimalScale is the largest number of fractional digits a Decimal can hold.
	MaxDecimalScale = 28
)

// maxDecimalMantissa is 2^96 - 1.
var maxDecimalMantissa = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 96), big.NewInt(1))

// Decimal is a 128-bit decimal floating point value: a 96-bit unsigned mantissa, a sign
// and a power-of-ten scale in [0, 28].
//
// The field order is the in-memory layout: Flags (sign in bit 31, scale in bits 16-23)
// followed by the high 32 mantissa bits and the low 64 mantissa bits.
type Decimal struct {
	Flags uint32
	Hi    uint32
	Lo    uint64
}

// NewDecimal builds a decimal from its parts. It fails when the mantissa needs more
// than 96 bits or the scale is out of range.
func NewDecimal(mantissa *big.Int, scale int, negative bool) (Decimal, error) {
	if mantissa.Sign() < 0 {
		return Decimal{}, fmt.Errorf("decimal mantissa must be non-negative")
	}
	if mantissa.Cmp(maxDecimalMantissa) > 0 {
		return Decimal{}, fmt.Errorf("decimal mantissa %s exceeds 96 bits", mantissa)
	}
	if scale < 0 || scale > MaxDecimalScale {
		return Decimal{}, fmt.Errorf("decimal scale %d out of range [0, %d]", scale, MaxDecimalScale)
	}

	lo := new(big.Int).And(mantissa, new(big.Int).SetUint64(^uint64(0))).Uint64()
	hi := new(big.Int).Rsh(mantissa, 64).Uint64()

	d := Decimal{Hi: uint32(hi), Lo: lo, Flags: uint32(scale) << decimalScaleBits}
	if negative && mantissa.Sign() != 0 {
		d.Flags |= decimalSignMask
	}
	return d, nil
}

// DecimalFromInt64 converts an integer exactly.
func DecimalFromInt64(v int64) Decimal {
	d := Decimal{}
	if v < 0 {
		d.Flags = decimalSignMask
		d.Lo = uint64(-(v + 1)) + 1
	} else {
		d.Lo = uint64(v)
	}
	return d
}

// ParseDecimal parses literals such as "12.2", "-0.5" or "30000000000m".
// Inputs that cannot be represented exactly are rejected rather than rounded.
func ParseDecimal(s string) (Decimal, error) {
	text := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(s), "m"), "M")
	if text == "" {
		return Decimal{}, fmt.Errorf("invalid decimal %q", s)
	}

	negative := false
	switch text[0] {
	case '-':
		negative = true
		text = text[1:]
	case '+':
		text = text[1:]
	}

	whole, frac, hasPoint := strings.Cut(text, ".")
	if whole == "" && frac == "" || hasPoint && frac == "" {
		return Decimal{}, fmt.Errorf("invalid decimal %q", s)
	}
	digits := whole + frac
	for _, c := range digits {
		if c < '0' || c > '9' {
			return Decimal{}, fmt.Errorf("invalid decimal %q", s)
		}
	}

	mantissa, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("invalid decimal %q", s)
	}
	d, err := NewDecimal(mantissa, len(frac), negative)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// Validate reports flag bits outside the sign and scale fields, or a scale above
// MaxDecimalScale. Values built by NewDecimal or ParseDecimal are always valid.
func (d Decimal) Validate() error {
	if d.Flags&^(decimalSignMask|decimalScaleMask) != 0 {
		return fmt.Errorf("decimal flags %#08x set bits outside the sign and scale", d.Flags)
	}
	if d.Scale() > MaxDecimalScale {
		return fmt.Errorf("decimal scale %d out of range [0, %d]", d.Scale(), MaxDecimalScale)
	}
	return nil
}

// Scale returns the number of fractional digits.
func (d Decimal) Scale() int {
	return int((d.Flags & decimalScaleMask) >> decimalScaleBits)
}

// Negative reports whether the sign bit is set.
func (d Decimal) Negative() bool {
	return d.Flags&decimalSignMask != 0
}

// Mantissa returns the unsigned 96-bit mantissa.
func (d Decimal) Mantissa() *big.Int {
	m := new(big.Int).SetUint64(uint64(d.Hi))
	m.Lsh(m, 64)
	return m.Or(m, new(big.Int).SetUint64(d.Lo))
}

// IsZero reports whether the value is numerically zero.
func (d Decimal) IsZero() bool {
	return d.Hi == 0 && d.Lo == 0
}

// Words splits the decimal into its two 64-bit memory words.
func (d Decimal) Words() (w0, w1 uint64) {
	return uint64(d.Flags) | uint64(d.Hi)<<32, d.Lo
}

// DecimalFromWords reassembles a decimal from the words returned by Words.
func DecimalFromWords(w0, w1 uint64) Decimal {
	return Decimal{Flags: uint32(w0), Hi: uint32(w0 >> 32), Lo: w1}
}

// Equal compares numerically, so 10 equals 10.00 and -0 equals 0.
func (d Decimal) Equal(o Decimal) bool {
	if d.IsZero() || o.IsZero() {
		return d.IsZero() && o.IsZero()
	}
	if d.Negative() != o.Negative() {
		return false
	}
	a, b := d.Mantissa(), o.Mantissa()
	ten := big.NewInt(10)
	for s := d.Scale(); s < o.Scale(); s++ {
		a.Mul(a, ten)
	}
	for s := o.Scale(); s < d.Scale(); s++ {
		b.Mul(b, ten)
	}
	return a.Cmp(b) == 0
}

func (d Decimal) String() string {
	digits := d.Mantissa().String()
	scale := d.Scale()
	if scale > 0 {
		if len(digits) <= scale {
			digits = strings.Repeat("0", scale-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	}
	if d.Negative() {
		return "-" + digits
	}
	return digits
}
