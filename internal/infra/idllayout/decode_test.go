package idllayout

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

const authorityKey = "43JchZn2K9ZD1dAfP9hTNUSWFvWYhK8df7R5RKeVQB2G"
const mintKey = "GrAkKfEpTKQuVHG2Y97Y2FF4i7y7Q5AHLK94JBy7Y5yv"

const legacyIDL = `{
  "version": "0.1.0",
  "name": "voter",
  "instructions": [],
  "accounts": [
    {
      "name": "Registrar",
      "type": {
        "kind": "struct",
        "fields": [
          {"name": "authority", "type": "publicKey"},
          {"name": "bump", "type": "u8"},
          {"name": "delta", "type": "i64"},
          {"name": "total", "type": "u128"},
          {"name": "debt", "type": "i128"},
          {"name": "label", "type": "string"},
          {"name": "mints", "type": {"vec": "publicKey"}},
          {"name": "config", "type": {"option": {"defined": "Config"}}},
          {"name": "state", "type": {"defined": "State"}},
          {"name": "seed", "type": {"array": ["u8", 4]}},
          {"name": "active", "type": "bool"}
        ]
      }
    }
  ],
  "types": [
    {
      "name": "Config",
      "type": {
        "kind": "struct",
        "fields": [
          {"name": "rate", "type": "u16"},
          {"name": "ratio", "type": "f32"}
        ]
      }
    },
    {
      "name": "State",
      "type": {
        "kind": "enum",
        "variants": [
          {"name": "Idle"},
          {"name": "Locked", "fields": [{"name": "until", "type": "i64"}]},
          {"name": "Pair", "fields": ["u8", "i8"]}
        ]
      }
    }
  ]
}`

const currentIDL = `{
  "address": "GrAkKfEpTKQuVHG2Y97Y2FF4i7y7Q5AHLK94JBy7Y5yv",
  "metadata": {"name": "voter", "version": "0.1.0", "spec": "0.1.0"},
  "instructions": [],
  "accounts": [
    {"name": "Voter", "discriminator": [1, 2, 3, 4, 5, 6, 7, 8]}
  ],
  "types": [
    {
      "name": "Voter",
      "type": {
        "kind": "struct",
        "fields": [
          {"name": "owner", "type": "pubkey"},
          {"name": "weight", "type": {"coption": "u64"}},
          {"name": "note", "type": {"option": "string"}},
          {"name": "state", "type": {"defined": {"name": "State"}}},
          {"name": "raw", "type": "bytes"},
          {"name": "amount", "type": {"defined": {"name": "Amount"}}}
        ]
      }
    },
    {
      "name": "State",
      "type": {
        "kind": "enum",
        "variants": [{"name": "Idle"}, {"name": "Pair", "fields": ["u8", "i8"]}]
      }
    },
    {"name": "Amount", "type": {"kind": "type", "alias": "u32"}}
  ]
}`

type accountBuilder struct {
	buf bytes.Buffer
	enc *bin.Encoder
}

func newAccountBuilder(discriminator [domain.DiscriminatorSize]byte) *accountBuilder {
	b := &accountBuilder{}
	b.buf.Write(discriminator[:])
	b.enc = bin.NewBorshEncoder(&b.buf)
	return b
}

func (b *accountBuilder) bytes() []byte {
	return b.buf.Bytes()
}

func registrarAccount(t *testing.T) *accountBuilder {
	t.Helper()
	b := newAccountBuilder(domain.AccountDiscriminator("Registrar"))
	authority := solana.MustPublicKeyFromBase58(authorityKey)
	mint := solana.MustPublicKeyFromBase58(mintKey)
	steps := []error{
		b.enc.WriteBytes(authority[:], false),
		b.enc.WriteUint8(255),
		b.enc.WriteInt64(-5, bin.LE),
		b.enc.WriteUint128(bin.Uint128{Lo: 1, Hi: 1}, bin.LE),
		b.enc.WriteInt128(bin.Int128{Lo: ^uint64(1), Hi: ^uint64(0)}, bin.LE),
		b.enc.WriteBytes([]byte("voter"), true),
		b.enc.WriteUint32(2, bin.LE),
		b.enc.WriteBytes(mint[:], false),
		b.enc.WriteBytes(authority[:], false),
		b.enc.WriteUint8(1),
		b.enc.WriteUint16(500, bin.LE),
		b.enc.WriteFloat32(0.5, bin.LE),
		b.enc.WriteUint8(1),
		b.enc.WriteInt64(1700000000, bin.LE),
		b.enc.WriteBytes([]byte{1, 2, 3, 4}, false),
		b.enc.WriteUint8(1),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("encode step %d: %v", i, err)
		}
	}
	return b
}

func TestDecodeLegacyAccount(t *testing.T) {
	raw := registrarAccount(t).bytes()
	raw = append(raw, 0, 0, 0, 0)

	decoded, err := Decoder{}.DecodeAccount([]byte(legacyIDL), "registrar", raw)
	if err != nil {
		t.Fatalf("DecodeAccount returned error: %v", err)
	}
	if decoded.Type != "Registrar" {
		t.Fatalf("unexpected type %q", decoded.Type)
	}
	if decoded.Discriminator != domain.AccountDiscriminator("Registrar") {
		t.Fatalf("unexpected discriminator %x", decoded.Discriminator)
	}

	expected := `{"authority":"` + authorityKey + `","bump":255,"delta":-5,` +
		`"total":18446744073709551617,"debt":-2,"label":"voter",` +
		`"mints":["` + mintKey + `","` + authorityKey + `"],` +
		`"config":{"rate":500,"ratio":0.5},"state":{"Locked":{"until":1700000000}},` +
		`"seed":[1,2,3,4],"active":true}`
	if string(decoded.Document) != expected {
		t.Fatalf("expected\n%s\ngot\n%s", expected, decoded.Document)
	}
}

func TestDecodeCurrentAccount(t *testing.T) {
	b := newAccountBuilder([domain.DiscriminatorSize]byte{1, 2, 3, 4, 5, 6, 7, 8})
	owner := solana.MustPublicKeyFromBase58(authorityKey)
	steps := []error{
		b.enc.WriteBytes(owner[:], false),
		b.enc.WriteUint32(1, bin.LE),
		b.enc.WriteUint64(42, bin.LE),
		b.enc.WriteUint8(0),
		b.enc.WriteUint8(1),
		b.enc.WriteUint8(7),
		b.enc.WriteInt8(-1),
		b.enc.WriteBytes([]byte("hi"), true),
		b.enc.WriteUint32(9, bin.LE),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("encode step %d: %v", i, err)
		}
	}

	decoded, err := Decoder{}.DecodeAccount([]byte(currentIDL), "Voter", b.bytes())
	if err != nil {
		t.Fatalf("DecodeAccount returned error: %v", err)
	}
	expected := `{"owner":"` + authorityKey + `","weight":42,"note":null,` +
		`"state":{"Pair":[7,-1]},"raw":"aGk=","amount":9}`
	if string(decoded.Document) != expected {
		t.Fatalf("expected\n%s\ngot\n%s", expected, decoded.Document)
	}
}

func TestDecodeUnitVariant(t *testing.T) {
	b := newAccountBuilder([domain.DiscriminatorSize]byte{1, 2, 3, 4, 5, 6, 7, 8})
	owner := solana.MustPublicKeyFromBase58(authorityKey)
	_ = b.enc.WriteBytes(owner[:], false)
	_ = b.enc.WriteUint32(0, bin.LE)
	_ = b.enc.WriteUint8(0)
	_ = b.enc.WriteUint8(0)
	_ = b.enc.WriteUint32(0, bin.LE)
	_ = b.enc.WriteUint32(0, bin.LE)

	decoded, err := Decoder{}.DecodeAccount([]byte(currentIDL), "voter", b.bytes())
	if err != nil {
		t.Fatalf("DecodeAccount returned error: %v", err)
	}
	if !strings.Contains(string(decoded.Document), `"weight":null`) || !strings.Contains(string(decoded.Document), `"state":{"Idle":{}}`) {
		t.Fatalf("unexpected document %s", decoded.Document)
	}
}

func TestDecodeAccountErrors(t *testing.T) {
	valid := registrarAccount(t).bytes()
	wrongTag := append([]byte(nil), valid...)
	wrongTag[0] ^= 0xff
	badBool := append([]byte(nil), valid...)
	badBool[len(badBool)-1] = 2

	tests := []struct {
		name        string
		idl         string
		accountType string
		raw         []byte
		want        error
	}{
		{name: "missing type", idl: legacyIDL, accountType: " ", raw: valid, want: domain.ErrAccountTypeRequired},
		{name: "unknown type", idl: legacyIDL, accountType: "Escrow", raw: valid, want: domain.ErrUnknownAccountType},
		{name: "wrong discriminator", idl: legacyIDL, accountType: "Registrar", raw: wrongTag, want: domain.ErrDiscriminatorMismatch},
		{name: "short account", idl: legacyIDL, accountType: "Registrar", raw: valid[:4], want: domain.ErrAccountLayout},
		{name: "truncated data", idl: legacyIDL, accountType: "Registrar", raw: valid[:len(valid)-10], want: domain.ErrAccountLayout},
		{name: "invalid bool", idl: legacyIDL, accountType: "Registrar", raw: badBool, want: domain.ErrAccountLayout},
		{name: "idl is not json", idl: `{"accounts":`, accountType: "Registrar", raw: valid, want: domain.ErrAccountLayout},
		{
			name:        "generic type",
			idl:         `{"accounts":[{"name":"Registrar","type":{"kind":"struct","fields":[{"name":"x","type":{"generic":"T"}}]}}]}`,
			accountType: "Registrar",
			raw:         valid,
			want:        domain.ErrAccountLayout,
		},
		{
			name:        "missing definition",
			idl:         `{"accounts":[{"name":"Registrar","type":{"kind":"struct","fields":[{"name":"x","type":{"defined":"Nope"}}]}}]}`,
			accountType: "Registrar",
			raw:         valid,
			want:        domain.ErrAccountLayout,
		},
		{
			name:        "self reference",
			idl:         `{"accounts":[{"name":"Registrar","type":{"kind":"struct","fields":[{"name":"x","type":{"defined":"Loop"}}]}}],"types":[{"name":"Loop","type":{"kind":"struct","fields":[{"name":"next","type":{"defined":"Loop"}}]}}]}`,
			accountType: "Registrar",
			raw:         valid,
			want:        domain.ErrAccountLayout,
		},
	}

	for _, tt := range tests {
		_, err := Decoder{}.DecodeAccount([]byte(tt.idl), tt.accountType, tt.raw)
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestUnknownAccountTypeListsDeclaredTypes(t *testing.T) {
	schema, err := ParseSchema([]byte(legacyIDL))
	if err != nil {
		t.Fatalf("ParseSchema returned error: %v", err)
	}
	if names := schema.AccountNames(); len(names) != 1 || names[0] != "Registrar" {
		t.Fatalf("unexpected account names %v", names)
	}
	_, err = schema.DecodeAccount("Escrow", nil)
	if err == nil || !strings.Contains(err.Error(), "Registrar") {
		t.Fatalf("expected declared types in error, got %v", err)
	}
}

func TestParseSchemaRejectsBadDiscriminator(t *testing.T) {
	_, err := ParseSchema([]byte(`{"accounts":[{"name":"A","discriminator":[1,2,3]}]}`))
	if !errors.Is(err, domain.ErrAccountLayout) {
		t.Fatalf("expected ErrAccountLayout, got %v", err)
	}
	_, err = ParseSchema([]byte(`{"accounts":[{"name":"A","discriminator":[1,2,3,4,5,6,7,256]}]}`))
	if !errors.Is(err, domain.ErrAccountLayout) {
		t.Fatalf("expected ErrAccountLayout, got %v", err)
	}
}
