package anchorenc

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

// envelope mirrors the Borsh layout of Anchor's IdlAccount:
// authority (32 bytes) followed by a u32-LE length-prefixed byte vector.
type envelope struct {
	Authority solana.PublicKey
	Data      []byte
}

func (e *envelope) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	authority, err := decoder.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("read authority: %w", err)
	}
	e.Authority = solana.PublicKeyFromBytes(authority)

	data, err := decoder.ReadByteSlice()
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}
	e.Data = data
	return nil
}

func (e envelope) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteBytes(e.Authority[:], false); err != nil {
		return err
	}
	return encoder.WriteBytes(e.Data, true)
}

// Decoder adapts DecodeEnvelope to the idl service.
type Decoder struct{}

func (Decoder) DecodeEnvelope(raw []byte) (domain.IdlAccount, error) {
	return DecodeEnvelope(raw)
}

// Encoder adapts EncodeEnvelope for callers that build accounts.
type Encoder struct{}

func (Encoder) EncodeEnvelope(discriminator [domain.DiscriminatorSize]byte, account domain.IdlAccount) ([]byte, error) {
	return EncodeEnvelope(discriminator, account)
}

// DecodeEnvelope skips the account discriminator and decodes the rest of raw
// as an IdlAccount. Bytes after the payload are ignored; Anchor allocates the
// account larger than the data it currently holds.
func DecodeEnvelope(raw []byte) (domain.IdlAccount, error) {
	if len(raw) < domain.DiscriminatorSize {
		return domain.IdlAccount{}, fmt.Errorf("%w: account is %d bytes, shorter than the %d byte discriminator", domain.ErrDeserialization, len(raw), domain.DiscriminatorSize)
	}

	var env envelope
	if err := bin.NewBorshDecoder(raw[domain.DiscriminatorSize:]).Decode(&env); err != nil {
		return domain.IdlAccount{}, fmt.Errorf("%w: %v", domain.ErrDeserialization, err)
	}

	return domain.IdlAccount{
		Authority: env.Authority,
		Data:      bytes.Clone(env.Data),
	}, nil
}

// EncodeEnvelope writes discriminator followed by the Borsh form of account.
func EncodeEnvelope(discriminator [domain.DiscriminatorSize]byte, account domain.IdlAccount) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(discriminator[:])
	env := envelope{Authority: account.Authority, Data: account.Data}
	if err := bin.NewBorshEncoder(&buf).Encode(env); err != nil {
		return nil, fmt.Errorf("encode idl account: %w", err)
	}
	return buf.Bytes(), nil
}
