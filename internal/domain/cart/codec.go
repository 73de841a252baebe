package cart

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// The persisted blob is a JSON array of line records. Only the fields listed
// here are stored; derived totals and product snapshots never are. Timestamps
// are stored as Unix seconds, so AddedAt round-trips at second precision.

func encodeLines(lines []Line) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(l.ProductID)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("added_at")
		e.Int64(l.AddedAt.Unix())
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

func decodeLines(blob []byte) ([]Line, error) {
	d := jx.DecodeBytes(blob)

	var lines []Line
	if err := d.Arr(func(d *jx.Decoder) error {
		var l Line
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "product_id":
				s, err := d.Str()
				l.ProductID = s
				return err
			case "quantity":
				n, err := d.Int()
				l.Quantity = n
				return err
			case "added_at":
				ts, err := d.Int64()
				l.AddedAt = time.Unix(ts, 0).UTC()
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		if l.ProductID == "" {
			return errors.New("line missing product id")
		}
		if l.Quantity < 1 {
			return errors.Errorf("line %s has invalid quantity %d", l.ProductID, l.Quantity)
		}
		lines = append(lines, l)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart blob")
	}
	return lines, nil
}
