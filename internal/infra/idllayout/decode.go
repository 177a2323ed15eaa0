package idllayout

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

// Nesting limit for defined types, vectors and options. Self-referencing
// layouts that consume no bytes would otherwise recurse forever.
const maxDepth = 64

// Decoder renders Anchor account data as JSON using the layout an IDL
// declares for the account type.
type Decoder struct{}

// DecodeAccount checks the discriminator of raw against accountType and
// decodes the remaining bytes field by field. Bytes after the last field are
// ignored.
func (Decoder) DecodeAccount(document []byte, accountType string, raw []byte) (domain.DecodedAccount, error) {
	schema, err := ParseSchema(document)
	if err != nil {
		return domain.DecodedAccount{}, err
	}
	return schema.DecodeAccount(accountType, raw)
}

// DecodeAccount is Decoder.DecodeAccount for an already parsed schema.
func (s *Schema) DecodeAccount(accountType string, raw []byte) (domain.DecodedAccount, error) {
	acc, err := s.lookupAccount(accountType)
	if err != nil {
		return domain.DecodedAccount{}, err
	}
	if len(raw) < domain.DiscriminatorSize {
		return domain.DecodedAccount{}, fmt.Errorf("%w: account is %d bytes, shorter than the %d byte discriminator", domain.ErrAccountLayout, len(raw), domain.DiscriminatorSize)
	}
	if !bytes.Equal(raw[:domain.DiscriminatorSize], acc.discriminator[:]) {
		return domain.DecodedAccount{}, fmt.Errorf("%w: %s expects %x, account starts with %x", domain.ErrDiscriminatorMismatch, acc.name, acc.discriminator, raw[:domain.DiscriminatorSize])
	}

	var out bytes.Buffer
	w := &valueWriter{
		schema: s,
		dec:    bin.NewBorshDecoder(raw[domain.DiscriminatorSize:]),
		enc:    jsontext.NewEncoder(&out),
	}
	if err := w.layout(acc.layout); err != nil {
		return domain.DecodedAccount{}, fmt.Errorf("%w: %s: %v", domain.ErrAccountLayout, acc.name, err)
	}

	return domain.DecodedAccount{
		Type:          acc.name,
		Discriminator: acc.discriminator,
		Document:      bytes.TrimSpace(out.Bytes()),
	}, nil
}

type valueWriter struct {
	schema *Schema
	dec    *bin.Decoder
	enc    *jsontext.Encoder
	depth  int
}

func (w *valueWriter) enter() error {
	w.depth++
	if w.depth > maxDepth {
		return fmt.Errorf("layout nests deeper than %d levels", maxDepth)
	}
	return nil
}

func (w *valueWriter) leave() {
	w.depth--
}

func (w *valueWriter) layout(l *layout) error {
	if err := w.enter(); err != nil {
		return err
	}
	defer w.leave()

	switch l.kind {
	case "struct":
		return w.fields(l.fields)
	case "enum":
		return w.enum(l.variants)
	default:
		return w.value(l.alias)
	}
}

// fields writes named fields as an object and tuple fields as an array.
func (w *valueWriter) fields(list fieldList) error {
	begin, end := jsontext.BeginObject, jsontext.EndObject
	if list.tuple {
		begin, end = jsontext.BeginArray, jsontext.EndArray
	}
	if err := w.enc.WriteToken(begin); err != nil {
		return err
	}
	for _, f := range list.fields {
		if !list.tuple {
			if err := w.enc.WriteToken(jsontext.String(f.name)); err != nil {
				return err
			}
		}
		if err := w.value(f.typ); err != nil {
			if f.name != "" {
				return fmt.Errorf("%s: %w", f.name, err)
			}
			return err
		}
	}
	return w.enc.WriteToken(end)
}

// enum writes {"Variant": fields}; unit variants carry an empty object.
func (w *valueWriter) enum(variants []variant) error {
	tag, err := w.dec.ReadUint8()
	if err != nil {
		return err
	}
	if int(tag) >= len(variants) {
		return fmt.Errorf("enum variant %d out of range (%d variants)", tag, len(variants))
	}
	v := variants[tag]
	if err := w.enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	if err := w.enc.WriteToken(jsontext.String(v.name)); err != nil {
		return err
	}
	if err := w.fields(v.fields); err != nil {
		return fmt.Errorf("%s: %w", v.name, err)
	}
	return w.enc.WriteToken(jsontext.EndObject)
}

func (w *valueWriter) value(t *typeExpr) error {
	switch t.kind {
	case kindPrimitive:
		return w.primitive(t.primitive)
	case kindDefined:
		def, ok := w.schema.types[t.defined]
		if !ok {
			return fmt.Errorf("type %q is not defined", t.defined)
		}
		return w.layout(def)
	case kindOption, kindCOption:
		present, err := w.optionTag(t.kind)
		if err != nil {
			return err
		}
		if !present {
			return w.enc.WriteToken(jsontext.Null)
		}
		return w.nested(t.elem)
	case kindVec:
		length, err := w.dec.ReadLength()
		if err != nil {
			return err
		}
		if length > w.dec.Remaining() {
			return fmt.Errorf("vector length %d exceeds the %d remaining bytes", length, w.dec.Remaining())
		}
		return w.sequence(t.elem, length)
	case kindArray:
		return w.sequence(t.elem, t.length)
	default:
		return fmt.Errorf("unsupported type kind %d", t.kind)
	}
}

func (w *valueWriter) nested(t *typeExpr) error {
	if err := w.enter(); err != nil {
		return err
	}
	defer w.leave()
	return w.value(t)
}

func (w *valueWriter) sequence(elem *typeExpr, length int) error {
	if err := w.enc.WriteToken(jsontext.BeginArray); err != nil {
		return err
	}
	for i := 0; i < length; i++ {
		if err := w.nested(elem); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return w.enc.WriteToken(jsontext.EndArray)
}

// optionTag reads the presence flag of an Option (one byte) or COption
// (four bytes). Any tag other than 0 or 1 is rejected.
func (w *valueWriter) optionTag(kind typeKind) (bool, error) {
	if kind == kindCOption {
		return w.dec.ReadCOption()
	}
	tag, err := w.dec.ReadUint8()
	if err != nil {
		return false, err
	}
	if tag > 1 {
		return false, fmt.Errorf("invalid option tag %d", tag)
	}
	return tag == 1, nil
}

func (w *valueWriter) primitive(name string) error {
	switch name {
	case "bool":
		b, err := w.dec.ReadUint8()
		if err != nil {
			return err
		}
		if b > 1 {
			return fmt.Errorf("invalid bool %d", b)
		}
		return w.enc.WriteToken(jsontext.Bool(b == 1))
	case "u8":
		v, err := w.dec.ReadUint8()
		if err != nil {
			return err
		}
		return w.enc.WriteToken(jsontext.Uint(uint64(v)))
	case "i8":
		v, err := w.dec.ReadInt8()
		if err != nil {
			return err
		}
		return w.enc.WriteToken(jsontext.Int(int64(v)))
	case "u16":
		v, err := w.dec.ReadUint16(bin.LE)
		if err != nil {
			return err
		}
		return w.enc.WriteToken(jsontext.Uint(uint64(v)))
	case "i16":
		v, err := w.dec.ReadInt16(bin.LE)
		if err != nil {
			return err
		}
		return w.enc.WriteToken(jsontext.Int(int64(v)))
	case "u32":
		v, err := w.dec.ReadUint32(bin.LE)
		if err != nil {
			return err
		}
		return w.enc.WriteToken(jsontext.Uint(uint64(v)))
	case "i32":
		v, err := w.dec.ReadInt32(bin.LE)
		if err != nil {
			return err
		}
		return w.enc.WriteToken(jsontext.Int(int64(v)))
	case "u64":
		v, err := w.dec.ReadUint64(bin.LE)
		if err != nil {
			return err
		}
		return w.enc.WriteToken(jsontext.Uint(v))
	case "i64":
		v, err := w.dec.ReadInt64(bin.LE)
		if err != nil {
			return err
		}
		return w.enc.WriteToken(jsontext.Int(v))
	case "u128":
		v, err := w.dec.ReadUint128(bin.LE)
		if err != nil {
			return err
		}
		v.Endianness = bin.LE
		return w.enc.WriteValue(jsontext.Value(v.DecimalString()))
	case "i128":
		v, err := w.dec.ReadInt128(bin.LE)
		if err != nil {
			return err
		}
		v.Endianness = bin.LE
		return w.enc.WriteValue(jsontext.Value(v.DecimalString()))
	case "f32":
		v, err := w.dec.ReadFloat32(bin.LE)
		if err != nil {
			return err
		}
		return w.float(float64(v), 32)
	case "f64":
		v, err := w.dec.ReadFloat64(bin.LE)
		if err != nil {
			return err
		}
		return w.float(v, 64)
	case "string":
		data, err := w.dec.ReadByteSlice()
		if err != nil {
			return err
		}
		return w.enc.WriteToken(jsontext.String(string(data)))
	case "bytes":
		data, err := w.dec.ReadByteSlice()
		if err != nil {
			return err
		}
		return w.enc.WriteToken(jsontext.String(base64.StdEncoding.EncodeToString(data)))
	case "pubkey":
		data, err := w.dec.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return err
		}
		return w.enc.WriteToken(jsontext.String(solana.PublicKeyFromBytes(data).String()))
	default:
		return fmt.Errorf("unsupported primitive %q", name)
	}
}

// float keeps the shortest representation for the source width. NaN and the
// infinities have no JSON number form and are written as strings.
func (w *valueWriter) float(v float64, bits int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return w.enc.WriteToken(jsontext.Float(v))
	}
	return w.enc.WriteValue(jsontext.Value(strconv.FormatFloat(v, 'g', -1, bits)))
}
