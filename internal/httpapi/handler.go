package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	accountapp "github.com/osvaldoandrade/anchoridl/internal/app/account"
	idlapp "github.com/osvaldoandrade/anchoridl/internal/app/idl"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

var ErrMissingParameter = errors.New("missing query parameter")

type errorKind string

const (
	kindInternal              errorKind = "internal"
	kindValidation            errorKind = "validation"
	kindInvalidAddress        errorKind = "invalid_address"
	kindUnknownCluster        errorKind = "unknown_cluster"
	kindUnknownAccountType    errorKind = "unknown_account_type"
	kindNotFound              errorKind = "not_found"
	kindDeserialization       errorKind = "deserialization"
	kindDecompression         errorKind = "decompression"
	kindParse                 errorKind = "parse"
	kindDiscriminatorMismatch errorKind = "discriminator_mismatch"
	kindAccountLayout         errorKind = "account_layout"
	kindUpstream              errorKind = "upstream"
)

type errorBody struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIDL(w http.ResponseWriter, r *http.Request) {
	req, err := fetchRequestFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req.RPCURL = s.opts.RPCURL

	ctx, cancel := s.requestContext(r)
	defer cancel()

	result, err := s.resolver.Fetch(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("X-Idl-Account", result.Address.String())
	if result.DocumentSHA256 != "" {
		etag := `"` + result.DocumentSHA256 + `"`
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Document)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	req, err := accountRequestFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req.RPCURL = s.opts.RPCURL

	ctx, cancel := s.requestContext(r)
	defer cancel()

	result, err := s.accounts.Fetch(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Account-Type", result.Type)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Document)
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout > 0 {
		return context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	}
	return context.WithCancel(r.Context())
}

// accountRequestFromQuery reads programId, accountType and accountId.
// cluster is optional here and defaults to mainnet-beta.
func accountRequestFromQuery(r *http.Request) (accountapp.Request, error) {
	query := r.URL.Query()
	req := accountapp.Request{
		ProgramID:   strings.TrimSpace(query.Get("programId")),
		AccountType: strings.TrimSpace(query.Get("accountType")),
		AccountID:   strings.TrimSpace(query.Get("accountId")),
		Cluster:     strings.TrimSpace(query.Get("cluster")),
	}
	switch {
	case req.ProgramID == "":
		return accountapp.Request{}, fmt.Errorf("%w: programId", ErrMissingParameter)
	case req.AccountType == "":
		return accountapp.Request{}, fmt.Errorf("%w: accountType", ErrMissingParameter)
	case req.AccountID == "":
		return accountapp.Request{}, fmt.Errorf("%w: accountId", ErrMissingParameter)
	}
	return req, nil
}

// fetchRequestFromQuery reads idlAccountId (or programId) and cluster. Both
// a target and a cluster are required.
func fetchRequestFromQuery(r *http.Request) (idlapp.FetchRequest, error) {
	query := r.URL.Query()
	req := idlapp.FetchRequest{
		Address:   strings.TrimSpace(query.Get("idlAccountId")),
		ProgramID: strings.TrimSpace(query.Get("programId")),
		Cluster:   strings.TrimSpace(query.Get("cluster")),
	}
	if req.Address == "" && req.ProgramID == "" {
		return idlapp.FetchRequest{}, fmt.Errorf("%w: idlAccountId or programId", ErrMissingParameter)
	}
	if req.Cluster == "" {
		return idlapp.FetchRequest{}, fmt.Errorf("%w: cluster", ErrMissingParameter)
	}
	return req, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	logger := s.logger.With("request_id", requestID(r.Context()), "kind", string(kind))
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
	} else {
		logger.Warn("request rejected", "err", err)
	}

	body, marshalErr := json.Marshal(errorBody{Code: status, Kind: string(kind), Message: err.Error()}, jsontext.WithIndent("  "))
	if marshalErr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func classify(err error) (int, errorKind) {
	switch {
	case errors.Is(err, ErrMissingParameter),
		errors.Is(err, domain.ErrAccountTypeRequired),
		errors.Is(err, idlapp.ErrTargetAmbiguous):
		return http.StatusBadRequest, kindValidation
	case errors.Is(err, domain.ErrAddressRequired),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, idlapp.ErrProgramRequired):
		return http.StatusBadRequest, kindInvalidAddress
	case errors.Is(err, domain.ErrUnknownCluster):
		return http.StatusBadRequest, kindUnknownCluster
	case errors.Is(err, domain.ErrUnknownAccountType):
		return http.StatusBadRequest, kindUnknownAccountType
	case errors.Is(err, idlapp.ErrAccountNotFound):
		return http.StatusNotFound, kindNotFound
	case errors.Is(err, domain.ErrDeserialization):
		return http.StatusUnprocessableEntity, kindDeserialization
	case errors.Is(err, domain.ErrDecompression):
		return http.StatusUnprocessableEntity, kindDecompression
	case errors.Is(err, domain.ErrParse):
		return http.StatusUnprocessableEntity, kindParse
	case errors.Is(err, domain.ErrDiscriminatorMismatch):
		return http.StatusUnprocessableEntity, kindDiscriminatorMismatch
	case errors.Is(err, domain.ErrAccountLayout):
		return http.StatusUnprocessableEntity, kindAccountLayout
	case errors.Is(err, idlapp.ErrRPC),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway, kindUpstream
	default:
		return http.StatusInternalServerError, kindInternal
	}
}
