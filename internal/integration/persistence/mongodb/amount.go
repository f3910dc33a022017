package mongodb

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Amount is a money value stored either as a BSON double, an integer or a
// Decimal128. $sum keeps the widest numeric type of its inputs, so totals
// come back in the same set of types.
type Amount decimal.Decimal

// Decimal returns the amount as a decimal.Decimal.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.Decimal(a)
}

// MarshalBSONValue stores the amount as Decimal128.
func (a Amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(a.Decimal().String())
	if err != nil {
		return 0, nil, fmt.Errorf("amount %s does not fit decimal128: %w", a.Decimal(), err)
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue decodes any numeric BSON type. Null reads as zero.
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.Null, bsontype.Undefined:
		*a = Amount(decimal.Zero)
	case bsontype.Double:
		*a = Amount(decimal.NewFromFloat(raw.Double()))
	case bsontype.Int32:
		*a = Amount(decimal.NewFromInt32(raw.Int32()))
	case bsontype.Int64:
		*a = Amount(decimal.NewFromInt(raw.Int64()))
	case bsontype.Decimal128:
		d, err := decimal.NewFromString(raw.Decimal128().String())
		if err != nil {
			return fmt.Errorf("invalid decimal128 amount: %w", err)
		}
		*a = Amount(d)
	default:
		return fmt.Errorf("unsupported amount type %s", t)
	}
	return nil
}
