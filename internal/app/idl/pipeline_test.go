package idl

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
	"github.com/osvaldoandrade/anchoridl/internal/infra/anchorenc"
	"github.com/osvaldoandrade/anchoridl/internal/infra/hash"
	"github.com/osvaldoandrade/anchoridl/internal/infra/jsondoc"
	"github.com/osvaldoandrade/anchoridl/internal/infra/zlibstream"
)

var sampleDocuments = []string{
	`{"version":"0.1.0","name":"example","instructions":[]}`,
	`{"zeta":1,"alpha":{"nested":[1,2,{"b":true,"a":null}]},"mid":"x"}`,
	`[]`,
	`"just a string"`,
	`{"unicode":"héllo ☃","escaped":"line\nbreak"}`,
}

func newPipelineService(t *testing.T, maxOutput int64) *Service {
	t.Helper()
	return NewService(&fakeFetcher{}, anchorenc.Decoder{}, zlibstream.Decompressor{MaxOutput: maxOutput}, jsondoc.Formatter{}, hash.SHA256{}, nil)
}

func buildAccount(t *testing.T, discriminator [domain.DiscriminatorSize]byte, authority solana.PublicKey, document []byte) []byte {
	t.Helper()
	compressed, err := zlibstream.Compressor{}.Compress(document)
	if err != nil {
		t.Fatalf("Compress returned error: %v", err)
	}
	raw, err := anchorenc.EncodeEnvelope(discriminator, domain.IdlAccount{Authority: authority, Data: compressed})
	if err != nil {
		t.Fatalf("EncodeEnvelope returned error: %v", err)
	}
	return raw
}

func TestDecodeSampleDocument(t *testing.T) {
	service := newPipelineService(t, 0)
	authority := solana.MustPublicKeyFromBase58(testAddress)
	raw := buildAccount(t, domain.IdlAccountDiscriminator, authority, []byte(sampleDocuments[0]))

	result, err := service.Decode(context.Background(), raw)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	want := "{\n  \"version\": \"0.1.0\",\n  \"name\": \"example\",\n  \"instructions\": []\n}"
	if string(result.Document) != want {
		t.Fatalf("unexpected document:\n%s", result.Document)
	}
	if result.Authority != authority {
		t.Fatalf("unexpected authority %s", result.Authority)
	}
	if result.Discriminator != domain.IdlAccountDiscriminator {
		t.Fatalf("unexpected discriminator %x", result.Discriminator)
	}
	if result.DocumentSHA256 != (hash.SHA256{}).SumHex([]byte(want)) {
		t.Fatalf("unexpected document digest %s", result.DocumentSHA256)
	}
	if result.AccountSize != len(raw) || result.DecompressedSize != len(sampleDocuments[0]) {
		t.Fatalf("unexpected sizes: %+v", result)
	}
}

func TestDecodeRoundTripPreservesContentAndOrder(t *testing.T) {
	service := newPipelineService(t, 1<<20)
	for _, document := range sampleDocuments {
		raw := buildAccount(t, domain.IdlAccountDiscriminator, solana.PublicKey{}, []byte(document))
		result, err := service.Decode(context.Background(), raw)
		if err != nil {
			t.Fatalf("Decode(%s) returned error: %v", document, err)
		}
		compact, err := jsondoc.Compactor{}.Format(context.Background(), result.Document)
		if err != nil {
			t.Fatalf("compact output: %v", err)
		}
		if string(compact) != document {
			t.Fatalf("round trip changed document:\nwant %s\ngot  %s", document, compact)
		}
	}
}

func TestDecodeIgnoresDiscriminatorValue(t *testing.T) {
	service := newPipelineService(t, 0)
	rng := rand.New(rand.NewSource(7))
	var baseline []byte
	for i := 0; i < 16; i++ {
		var discriminator [domain.DiscriminatorSize]byte
		rng.Read(discriminator[:])
		raw := buildAccount(t, discriminator, solana.PublicKey{}, []byte(sampleDocuments[1]))
		result, err := service.Decode(context.Background(), raw)
		if err != nil {
			t.Fatalf("Decode returned error for discriminator %x: %v", discriminator, err)
		}
		if baseline == nil {
			baseline = result.Document
			continue
		}
		if string(result.Document) != string(baseline) {
			t.Fatalf("output depends on discriminator %x", discriminator)
		}
	}
}

func TestDecodeRejectsTruncatedAccounts(t *testing.T) {
	service := newPipelineService(t, 0)
	raw := buildAccount(t, domain.IdlAccountDiscriminator, solana.PublicKey{}, []byte(sampleDocuments[1]))
	for cut := 0; cut < domain.DiscriminatorSize+solana.PublicKeyLength+4; cut++ {
		if _, err := service.Decode(context.Background(), raw[:cut]); !errors.Is(err, domain.ErrDeserialization) {
			t.Fatalf("cut %d: expected ErrDeserialization, got %v", cut, err)
		}
	}
	for cut := domain.DiscriminatorSize + solana.PublicKeyLength + 4; cut < len(raw); cut++ {
		if _, err := service.Decode(context.Background(), raw[:cut]); !errors.Is(err, domain.ErrDeserialization) {
			t.Fatalf("cut %d: expected ErrDeserialization for short payload, got %v", cut, err)
		}
	}
}

func TestDecodeSurvivesCorruptPayload(t *testing.T) {
	service := newPipelineService(t, 1<<16)
	raw := buildAccount(t, domain.IdlAccountDiscriminator, solana.PublicKey{}, []byte(sampleDocuments[1]))
	payloadStart := domain.DiscriminatorSize + solana.PublicKeyLength + 4
	for i := payloadStart; i < len(raw); i++ {
		corrupt := append([]byte(nil), raw...)
		corrupt[i] ^= 0xff
		_, err := service.Decode(context.Background(), corrupt)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrDecompression) && !errors.Is(err, domain.ErrParse) {
			t.Fatalf("byte %d: unexpected error kind %v", i, err)
		}
	}
}

func TestDecodeRejectsNonJSONPayload(t *testing.T) {
	service := newPipelineService(t, 0)
	raw := buildAccount(t, domain.IdlAccountDiscriminator, solana.PublicKey{}, []byte("not json"))
	if _, err := service.Decode(context.Background(), raw); !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestDecodeRejectsUncompressedPayload(t *testing.T) {
	service := newPipelineService(t, 0)
	raw, err := anchorenc.EncodeEnvelope(domain.IdlAccountDiscriminator, domain.IdlAccount{Data: []byte(sampleDocuments[0])})
	if err != nil {
		t.Fatalf("EncodeEnvelope returned error: %v", err)
	}
	if _, err := service.Decode(context.Background(), raw); !errors.Is(err, domain.ErrDecompression) {
		t.Fatalf("expected ErrDecompression, got %v", err)
	}
}
