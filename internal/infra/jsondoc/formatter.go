package jsondoc

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

const indent = "  "

// Repeated member names are legal JSON and are re-emitted as they appear.
var parseOptions = jsontext.AllowDuplicateNames(true)

// Formatter re-emits a JSON document with two-space indentation. Member order
// and the member set are kept exactly as in the input.
type Formatter struct{}

func (Formatter) Format(ctx context.Context, input []byte) ([]byte, error) {
	value, err := parse(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := value.Indent(jsontext.WithIndent(indent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return []byte(value), nil
}

// Compactor re-emits a JSON document with all insignificant whitespace removed.
type Compactor struct{}

func (Compactor) Format(ctx context.Context, input []byte) ([]byte, error) {
	value, err := parse(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := value.Compact(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return []byte(value), nil
}

func parse(ctx context.Context, input []byte) (jsontext.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.Valid(input) {
		return nil, fmt.Errorf("%w: input is not valid utf-8", domain.ErrParse)
	}

	value := jsontext.Value(append([]byte(nil), input...))
	if !value.IsValid(parseOptions) {
		return nil, fmt.Errorf("%w: %s", domain.ErrParse, syntaxError(value))
	}
	return value, nil
}

// syntaxError reports where decoding stopped for an invalid value.
func syntaxError(value jsontext.Value) string {
	scratch := append(jsontext.Value(nil), value...)
	if err := scratch.Format(parseOptions); err != nil {
		return err.Error()
	}
	return "invalid json document"
}
