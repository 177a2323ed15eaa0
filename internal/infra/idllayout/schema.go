package idllayout

import (
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

// Maximum element count accepted for a fixed-size array declared by an IDL.
const maxArrayLen = 1 << 24

type typeKind int

const (
	kindPrimitive typeKind = iota
	kindVec
	kindOption
	kindCOption
	kindArray
	kindDefined
)

// typeExpr is a field type as written in an IDL, for both the legacy
// ("publicKey", {"defined":"Name"}) and current ("pubkey",
// {"defined":{"name":"Name"}}) spellings.
type typeExpr struct {
	kind      typeKind
	primitive string
	elem      *typeExpr
	length    int
	defined   string
}

type field struct {
	name string
	typ  *typeExpr
}

type fieldList struct {
	fields []field
	tuple  bool
}

type variant struct {
	name   string
	fields fieldList
}

type layout struct {
	kind     string
	fields   fieldList
	variants []variant
	alias    *typeExpr
}

type account struct {
	name          string
	discriminator [domain.DiscriminatorSize]byte
	layout        *layout
}

// Schema is the account and type layout section of an IDL document.
type Schema struct {
	accounts []account
	types    map[string]*layout
}

type idlDocument struct {
	Accounts []idlAccount `json:"accounts"`
	Types    []idlTypeDef `json:"types"`
}

type idlAccount struct {
	Name          string      `json:"name"`
	Discriminator []int       `json:"discriminator"`
	Type          *idlTypeDef `json:"type"`
}

type idlTypeDef struct {
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Type     *idlTypeDef    `json:"type"`
	Fields   jsontext.Value `json:"fields"`
	Variants []idlVariant   `json:"variants"`
	Alias    jsontext.Value `json:"alias"`
}

type idlVariant struct {
	Name   string         `json:"name"`
	Fields jsontext.Value `json:"fields"`
}

type idlNamedField struct {
	Name string         `json:"name"`
	Type jsontext.Value `json:"type"`
}

// ParseSchema reads the accounts and types sections of an IDL document.
// Instructions, events and errors are not needed to decode account data and
// are ignored.
func ParseSchema(document []byte) (*Schema, error) {
	var doc idlDocument
	if err := json.Unmarshal(document, &doc, jsontext.AllowDuplicateNames(true)); err != nil {
		return nil, fmt.Errorf("%w: read idl: %v", domain.ErrAccountLayout, err)
	}

	schema := &Schema{types: make(map[string]*layout, len(doc.Types))}
	for _, def := range doc.Types {
		if def.Type == nil {
			return nil, fmt.Errorf("%w: type %q has no definition", domain.ErrAccountLayout, def.Name)
		}
		parsed, err := parseLayout(def.Name, *def.Type)
		if err != nil {
			return nil, err
		}
		schema.types[def.Name] = parsed
	}

	for _, def := range doc.Accounts {
		acc := account{name: def.Name}
		switch {
		case len(def.Discriminator) == 0:
			acc.discriminator = domain.AccountDiscriminator(def.Name)
		case len(def.Discriminator) == domain.DiscriminatorSize:
			for i, b := range def.Discriminator {
				if b < 0 || b > 0xff {
					return nil, fmt.Errorf("%w: account %q discriminator byte %d out of range", domain.ErrAccountLayout, def.Name, b)
				}
				acc.discriminator[i] = byte(b)
			}
		default:
			return nil, fmt.Errorf("%w: account %q discriminator has %d bytes", domain.ErrAccountLayout, def.Name, len(def.Discriminator))
		}
		if def.Type != nil {
			parsed, err := parseLayout(def.Name, *def.Type)
			if err != nil {
				return nil, err
			}
			acc.layout = parsed
		}
		schema.accounts = append(schema.accounts, acc)
	}
	return schema, nil
}

// AccountNames lists the declared account types in IDL order.
func (s *Schema) AccountNames() []string {
	names := make([]string, 0, len(s.accounts))
	for _, acc := range s.accounts {
		names = append(names, acc.name)
	}
	return names
}

// lookupAccount matches name exactly first, then case-insensitively so that
// "registrar" finds "Registrar".
func (s *Schema) lookupAccount(name string) (account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return account{}, domain.ErrAccountTypeRequired
	}
	for _, acc := range s.accounts {
		if acc.name == name {
			return s.withLayout(acc)
		}
	}
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.name, name) {
			return s.withLayout(acc)
		}
	}
	return account{}, fmt.Errorf("%w: %q (declared: %s)", domain.ErrUnknownAccountType, name, strings.Join(s.AccountNames(), ", "))
}

func (s *Schema) withLayout(acc account) (account, error) {
	if acc.layout != nil {
		return acc, nil
	}
	def, ok := s.types[acc.name]
	if !ok {
		return account{}, fmt.Errorf("%w: account %q has no type definition", domain.ErrAccountLayout, acc.name)
	}
	acc.layout = def
	return acc, nil
}

func parseLayout(name string, def idlTypeDef) (*layout, error) {
	out := &layout{kind: def.Kind}
	switch def.Kind {
	case "struct":
		fields, err := parseFields(def.Fields)
		if err != nil {
			return nil, fmt.Errorf("%w: type %q: %v", domain.ErrAccountLayout, name, err)
		}
		out.fields = fields
	case "enum":
		if len(def.Variants) > 256 {
			return nil, fmt.Errorf("%w: enum %q has %d variants", domain.ErrAccountLayout, name, len(def.Variants))
		}
		for _, v := range def.Variants {
			fields, err := parseFields(v.Fields)
			if err != nil {
				return nil, fmt.Errorf("%w: variant %s::%s: %v", domain.ErrAccountLayout, name, v.Name, err)
			}
			out.variants = append(out.variants, variant{name: v.Name, fields: fields})
		}
	case "type":
		alias, err := parseType(def.Alias)
		if err != nil {
			return nil, fmt.Errorf("%w: alias %q: %v", domain.ErrAccountLayout, name, err)
		}
		out.alias = alias
	default:
		return nil, fmt.Errorf("%w: type %q has unsupported kind %q", domain.ErrAccountLayout, name, def.Kind)
	}
	return out, nil
}

// parseFields accepts named fields ([{"name":..,"type":..}]) and tuple
// fields ([type, type]). A missing list is a unit struct or variant.
func parseFields(raw jsontext.Value) (fieldList, error) {
	if len(raw) == 0 || raw.Kind() == 'n' {
		return fieldList{}, nil
	}
	var items []jsontext.Value
	if err := json.Unmarshal(raw, &items); err != nil {
		return fieldList{}, fmt.Errorf("fields: %v", err)
	}

	var out fieldList
	for i, item := range items {
		named, ok := namedField(item)
		if i == 0 {
			out.tuple = !ok
		} else if ok == out.tuple {
			return fieldList{}, fmt.Errorf("fields mix named and tuple entries")
		}

		typeValue := item
		if ok {
			typeValue = named.Type
		}
		typ, err := parseType(typeValue)
		if err != nil {
			return fieldList{}, fmt.Errorf("field %d: %v", i, err)
		}
		entry := field{typ: typ}
		if ok {
			entry.name = named.Name
		}
		out.fields = append(out.fields, entry)
	}
	return out, nil
}

func namedField(item jsontext.Value) (idlNamedField, bool) {
	if item.Kind() != '{' {
		return idlNamedField{}, false
	}
	var named idlNamedField
	if err := json.Unmarshal(item, &named); err != nil {
		return idlNamedField{}, false
	}
	return named, named.Name != "" && len(named.Type) > 0
}

var primitives = map[string]string{
	"bool":      "bool",
	"u8":        "u8",
	"i8":        "i8",
	"u16":       "u16",
	"i16":       "i16",
	"u32":       "u32",
	"i32":       "i32",
	"u64":       "u64",
	"i64":       "i64",
	"u128":      "u128",
	"i128":      "i128",
	"f32":       "f32",
	"f64":       "f64",
	"string":    "string",
	"bytes":     "bytes",
	"publicKey": "pubkey",
	"pubkey":    "pubkey",
}

var wrapperKinds = map[string]typeKind{
	"vec":     kindVec,
	"option":  kindOption,
	"coption": kindCOption,
}

func parseType(raw jsontext.Value) (*typeExpr, error) {
	switch raw.Kind() {
	case '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, err
		}
		primitive, ok := primitives[name]
		if !ok {
			return nil, fmt.Errorf("unsupported type %q", name)
		}
		return &typeExpr{kind: kindPrimitive, primitive: primitive}, nil
	case '{':
	default:
		return nil, fmt.Errorf("unsupported type %s", raw)
	}

	var obj map[string]jsontext.Value
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if len(obj) != 1 {
		return nil, fmt.Errorf("unsupported type %s", raw)
	}
	for key, value := range obj {
		switch key {
		case "vec", "option", "coption":
			elem, err := parseType(value)
			if err != nil {
				return nil, err
			}
			return &typeExpr{kind: wrapperKinds[key], elem: elem}, nil
		case "array":
			return parseArray(value)
		case "defined":
			name, err := definedName(value)
			if err != nil {
				return nil, err
			}
			return &typeExpr{kind: kindDefined, defined: name}, nil
		}
		return nil, fmt.Errorf("unsupported type %q", key)
	}
	return nil, fmt.Errorf("unsupported type %s", raw)
}

func parseArray(raw jsontext.Value) (*typeExpr, error) {
	var parts []jsontext.Value
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) != 2 {
		return nil, fmt.Errorf("array must be [type, length]")
	}
	elem, err := parseType(parts[0])
	if err != nil {
		return nil, err
	}
	var length int
	if err := json.Unmarshal(parts[1], &length); err != nil {
		return nil, fmt.Errorf("array length %s is not a constant", parts[1])
	}
	if length < 0 || length > maxArrayLen {
		return nil, fmt.Errorf("array length %d out of range", length)
	}
	return &typeExpr{kind: kindArray, elem: elem, length: length}, nil
}

func definedName(raw jsontext.Value) (string, error) {
	if raw.Kind() == '"' {
		var name string
		err := json.Unmarshal(raw, &name)
		return name, err
	}
	var ref struct {
		Name     string           `json:"name"`
		Generics []jsontext.Value `json:"generics"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", err
	}
	if len(ref.Generics) > 0 {
		return "", fmt.Errorf("generic type %q is not supported", ref.Name)
	}
	if ref.Name == "" {
		return "", fmt.Errorf("defined type has no name")
	}
	return ref.Name, nil
}
