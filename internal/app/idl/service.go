package idl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

type Service struct {
	fetcher      AccountFetcher
	decoder      EnvelopeDecoder
	decompressor Decompressor
	formatter    DocumentFormatter
	hasher       DocumentHasher
	logger       *slog.Logger
}

func NewService(fetcher AccountFetcher, decoder EnvelopeDecoder, decompressor Decompressor, formatter DocumentFormatter, hasher DocumentHasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:      fetcher,
		decoder:      decoder,
		decompressor: decompressor,
		formatter:    formatter,
		hasher:       hasher,
		logger:       logger,
	}
}

// Fetch resolves the IDL stored at req.Address (or derived from
// req.ProgramID) on the requested cluster.
func (s *Service) Fetch(ctx context.Context, req FetchRequest) (Result, error) {
	cluster, endpoint, err := domain.ResolveEndpoint(req.Cluster, req.RPCURL)
	if err != nil {
		return Result{}, err
	}

	address, err := s.targetAddress(req)
	if err != nil {
		return Result{}, err
	}

	s.logger.Debug("fetching idl account", "address", address.String(), "cluster", cluster.String(), "endpoint", endpoint)
	raw, err := s.fetcher.FetchAccount(ctx, endpoint, address)
	if err != nil {
		return Result{}, err
	}

	result, err := s.Decode(ctx, raw)
	if err != nil {
		return Result{}, err
	}
	result.Address = address
	result.Cluster = cluster
	result.Endpoint = endpoint

	s.logger.Info("resolved idl",
		"address", address.String(),
		"cluster", cluster.String(),
		"authority", result.Authority.String(),
		"account_bytes", result.AccountSize,
		"idl_bytes", result.DecompressedSize,
	)
	return result, nil
}

// Decode runs the account bytes through envelope decoding, decompression and
// JSON re-emission. Any stage failure aborts the whole decode.
func (s *Service) Decode(ctx context.Context, raw []byte) (Result, error) {
	account, err := s.decoder.DecodeEnvelope(raw)
	if err != nil {
		return Result{}, fmt.Errorf("decode envelope: %w", err)
	}
	s.logger.Debug("decoded envelope", "authority", account.Authority.String(), "compressed_bytes", len(account.Data))

	decompressed, err := s.decompressor.Decompress(account.Data)
	if err != nil {
		return Result{}, fmt.Errorf("decompress payload: %w", err)
	}
	s.logger.Debug("decompressed payload", "bytes", len(decompressed))

	document, err := s.formatter.Format(ctx, decompressed)
	if err != nil {
		return Result{}, fmt.Errorf("format document: %w", err)
	}

	result := Result{
		Authority:        account.Authority,
		AccountSize:      len(raw),
		CompressedSize:   len(account.Data),
		DecompressedSize: len(decompressed),
		Document:         document,
		DocumentSHA256:   s.hasher.SumHex(document),
	}
	if len(raw) >= domain.DiscriminatorSize {
		copy(result.Discriminator[:], raw[:domain.DiscriminatorSize])
	}
	return result, nil
}

func (s *Service) targetAddress(req FetchRequest) (solana.PublicKey, error) {
	address := strings.TrimSpace(req.Address)
	programID := strings.TrimSpace(req.ProgramID)
	switch {
	case address != "" && programID != "":
		return solana.PublicKey{}, ErrTargetAmbiguous
	case programID != "":
		resolved, err := ResolveAddress(programID)
		if err != nil {
			return solana.PublicKey{}, err
		}
		return resolved.Address, nil
	default:
		return domain.ParseAddress(address)
	}
}
