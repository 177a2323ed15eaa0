package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gagliardetto/solana-go"
	idlapp "github.com/osvaldoandrade/anchoridl/internal/app/idl"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

// Service decodes program accounts with the layout their program's IDL
// declares.
type Service struct {
	idls      IDLResolver
	fetcher   AccountFetcher
	decoder   LayoutDecoder
	formatter DocumentFormatter
	logger    *slog.Logger
}

func NewService(idls IDLResolver, fetcher AccountFetcher, decoder LayoutDecoder, formatter DocumentFormatter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		idls:      idls,
		fetcher:   fetcher,
		decoder:   decoder,
		formatter: formatter,
		logger:    logger,
	}
}

// Fetch loads the IDL of req.ProgramID (unless req.IDL is given), reads
// req.AccountID and decodes it as req.AccountType. Every input is validated
// before the first network call.
func (s *Service) Fetch(ctx context.Context, req Request) (Result, error) {
	accountType := strings.TrimSpace(req.AccountType)
	if accountType == "" {
		return Result{}, domain.ErrAccountTypeRequired
	}
	cluster, endpoint, err := domain.ResolveEndpoint(req.Cluster, req.RPCURL)
	if err != nil {
		return Result{}, err
	}
	address, err := domain.ParseAddress(req.AccountID)
	if err != nil {
		return Result{}, err
	}

	result := Result{Address: address, Cluster: cluster, Endpoint: endpoint}
	document := req.IDL
	if len(document) == 0 || strings.TrimSpace(req.ProgramID) != "" {
		resolved, err := idlapp.ResolveAddress(req.ProgramID)
		if err != nil {
			return Result{}, err
		}
		result.ProgramID = resolved.ProgramID
		result.IDLAddress = resolved.Address
	}
	if len(document) == 0 {
		idl, err := s.idls.Fetch(ctx, idlapp.FetchRequest{
			Address: result.IDLAddress.String(),
			Cluster: string(cluster),
			RPCURL:  req.RPCURL,
		})
		if err != nil {
			return Result{}, fmt.Errorf("load idl: %w", err)
		}
		document = idl.Document
	}

	s.logger.Debug("fetching program account", "address", address.String(), "type", accountType, "cluster", cluster.String(), "endpoint", endpoint)
	raw, err := s.fetcher.FetchAccount(ctx, endpoint, address)
	if err != nil {
		return Result{}, fmt.Errorf("fetch account: %w", err)
	}

	decoded, err := s.Decode(ctx, document, accountType, raw)
	if err != nil {
		return Result{}, err
	}
	result.Type = decoded.Type
	result.Discriminator = decoded.Discriminator
	result.AccountSize = decoded.AccountSize
	result.Document = decoded.Document

	s.logger.Info("decoded account",
		"address", address.String(),
		"type", result.Type,
		"program", programString(result.ProgramID),
		"cluster", cluster.String(),
		"account_bytes", result.AccountSize,
	)
	return result, nil
}

// Decode renders raw through the layout document declares for accountType.
func (s *Service) Decode(ctx context.Context, document []byte, accountType string, raw []byte) (Result, error) {
	decoded, err := s.decoder.DecodeAccount(document, accountType, raw)
	if err != nil {
		return Result{}, fmt.Errorf("decode account: %w", err)
	}
	formatted, err := s.formatter.Format(ctx, decoded.Document)
	if err != nil {
		return Result{}, fmt.Errorf("format account: %w", err)
	}
	return Result{
		Type:          decoded.Type,
		Discriminator: decoded.Discriminator,
		AccountSize:   len(raw),
		Document:      formatted,
	}, nil
}

func programString(program solana.PublicKey) string {
	if program.IsZero() {
		return ""
	}
	return program.String()
}
