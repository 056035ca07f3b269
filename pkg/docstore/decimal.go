package docstore

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToDecimal128 converts an exact decimal into its BSON representation.
func ToDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("decimal128 %s: %w", d.String(), err)
	}
	return v, nil
}

// MustDecimal128 is ToDecimal128 for values already bounded by the schema.
func MustDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := ToDecimal128(d)
	if err != nil {
		panic(err)
	}
	return v
}

func FromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decimal %s: %w", v.String(), err)
	}
	return d, nil
}

// NullableDecimal128 maps an optional decimal onto an optional BSON value.
func NullableDecimal128(d decimal.NullDecimal) *primitive.Decimal128 {
	if !d.Valid {
		return nil
	}
	v := MustDecimal128(d.Decimal)
	return &v
}

func NullableDecimal(v *primitive.Decimal128) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := FromDecimal128(*v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
