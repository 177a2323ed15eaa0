package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	accountapp "github.com/osvaldoandrade/anchoridl/internal/app/account"
	idlapp "github.com/osvaldoandrade/anchoridl/internal/app/idl"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
	"github.com/osvaldoandrade/anchoridl/internal/httpapi"
	"github.com/osvaldoandrade/anchoridl/internal/infra/anchorenc"
	"github.com/osvaldoandrade/anchoridl/internal/infra/filesystem"
	"github.com/osvaldoandrade/anchoridl/internal/infra/hash"
	"github.com/osvaldoandrade/anchoridl/internal/infra/idllayout"
	"github.com/osvaldoandrade/anchoridl/internal/infra/jsondoc"
	"github.com/osvaldoandrade/anchoridl/internal/infra/solanarpc"
	"github.com/osvaldoandrade/anchoridl/internal/infra/zlibstream"
	"github.com/spf13/cobra"
)

func newFetchCmd(opts *RootOptions) *cobra.Command {
	var programID string
	var compact bool
	cmd := &cobra.Command{
		Use:   "fetch [idl-account]",
		Short: "Fetch and decode an IDL account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := idlapp.FetchRequest{
				ProgramID: programID,
				Cluster:   opts.Cluster,
				RPCURL:    opts.RPCURL,
			}
			if len(args) == 1 {
				req.Address = args[0]
			}

			ctx := cmd.Context()
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
				defer cancel()
			}

			service := newIDLService(opts, compact)
			var result idlapp.Result
			spin := spinnerEnabled(cmd.ErrOrStderr(), opts.JSONOutput)
			label := newRenderer(cmd.ErrOrStderr(), opts.JSONOutput).accent("Fetching IDL account")
			err := withSpinner(ctx, cmd.ErrOrStderr(), spin, label, func() error {
				var fetchErr error
				result, fetchErr = service.Fetch(ctx, req)
				return fetchErr
			})
			if err != nil {
				return err
			}
			return writeIDLResult(cmd, result, opts.JSONOutput)
		},
	}
	cmd.Flags().StringVar(&programID, "program", "", "Program id; the IDL account address is derived from it")
	cmd.Flags().BoolVar(&compact, "compact", false, "Emit the IDL without indentation")
	return cmd
}

func newDecodeCmd(opts *RootOptions) *cobra.Command {
	var filePath string
	var isBase64 bool
	var compact bool
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a saved IDL account blob without touching the network",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readAccountInput(cmd.Context(), filesystem.Files{Stdin: cmd.InOrStdin()}, filePath, isBase64)
			if err != nil {
				return err
			}
			result, err := newIDLService(opts, compact).Decode(cmd.Context(), raw)
			if err != nil {
				return err
			}
			return writeIDLResult(cmd, result, opts.JSONOutput)
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "Path to the raw account data (- reads stdin)")
	cmd.Flags().BoolVar(&isBase64, "base64", false, "Input is base64 text instead of raw bytes")
	cmd.Flags().BoolVar(&compact, "compact", false, "Emit the IDL without indentation")
	return cmd
}

func newAddressCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "address <program-id>",
		Short: "Derive the IDL account address of a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := idlapp.ResolveAddress(args[0])
			if err != nil {
				return err
			}
			return writeAddressResult(cmd, result, opts.JSONOutput)
		},
	}
}

func newPackCmd(opts *RootOptions) *cobra.Command {
	var filePath string
	var authority string
	var discriminator string
	var outputPath string
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Build an IDL account blob from a JSON document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(filePath) == "" {
				return fmt.Errorf("%w: use --file", ErrInputRequired)
			}
			files := filesystem.Files{Stdin: cmd.InOrStdin()}
			document, err := files.ReadInput(cmd.Context(), filePath)
			if err != nil {
				return err
			}

			var owner solana.PublicKey
			if strings.TrimSpace(authority) != "" {
				owner, err = domain.ParseAddress(authority)
				if err != nil {
					return err
				}
			}
			prefix, err := parseDiscriminator(discriminator)
			if err != nil {
				return err
			}

			compacted, err := jsondoc.Compactor{}.Format(cmd.Context(), document)
			if err != nil {
				return err
			}
			compressed, err := zlibstream.Compressor{}.Compress(compacted)
			if err != nil {
				return err
			}
			raw, err := anchorenc.EncodeEnvelope(prefix, domain.IdlAccount{Authority: owner, Data: compressed})
			if err != nil {
				return err
			}

			if outputPath != "" {
				if err := files.WriteOutput(cmd.Context(), outputPath, raw); err != nil {
					return err
				}
			}
			return writePackResult(cmd, packOutput{
				Authority:       owner.String(),
				Discriminator:   hex.EncodeToString(prefix[:]),
				AccountBytes:    len(raw),
				CompressedBytes: len(compressed),
				IDLBytes:        len(compacted),
				Account:         base64.StdEncoding.EncodeToString(raw),
				Output:          outputPath,
			}, opts.JSONOutput)
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "Path to the IDL JSON document (- reads stdin)")
	cmd.Flags().StringVar(&authority, "authority", "", "Authority public key stored in the account")
	cmd.Flags().StringVar(&discriminator, "discriminator", hex.EncodeToString(domain.IdlAccountDiscriminator[:]), "Hex-encoded 8-byte account prefix")
	cmd.Flags().StringVar(&outputPath, "output", "", "Also write the raw account bytes to this path")
	return cmd
}

func newAccountCmd(opts *RootOptions) *cobra.Command {
	var programID string
	var accountType string
	var idlPath string
	var filePath string
	var isBase64 bool
	var compact bool
	cmd := &cobra.Command{
		Use:   "account [account-id]",
		Short: "Decode a program account with the layout from its IDL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := filesystem.Files{Stdin: cmd.InOrStdin()}
			var document []byte
			if strings.TrimSpace(idlPath) != "" {
				var err error
				document, err = files.ReadInput(cmd.Context(), idlPath)
				if err != nil {
					return err
				}
			}
			service := newAccountService(opts, compact)

			if strings.TrimSpace(filePath) != "" {
				if len(document) == 0 {
					return fmt.Errorf("%w: --file needs --idl", ErrInputRequired)
				}
				raw, err := readAccountInput(cmd.Context(), files, filePath, isBase64)
				if err != nil {
					return err
				}
				result, err := service.Decode(cmd.Context(), document, accountType, raw)
				if err != nil {
					return err
				}
				return writeAccountResult(cmd, result, opts.JSONOutput)
			}

			req := accountapp.Request{
				ProgramID:   programID,
				AccountType: accountType,
				Cluster:     opts.Cluster,
				RPCURL:      opts.RPCURL,
				IDL:         document,
			}
			if len(args) == 1 {
				req.AccountID = args[0]
			}

			ctx := cmd.Context()
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
				defer cancel()
			}

			var result accountapp.Result
			spin := spinnerEnabled(cmd.ErrOrStderr(), opts.JSONOutput)
			label := newRenderer(cmd.ErrOrStderr(), opts.JSONOutput).accent("Fetching account")
			err := withSpinner(ctx, cmd.ErrOrStderr(), spin, label, func() error {
				var fetchErr error
				result, fetchErr = service.Fetch(ctx, req)
				return fetchErr
			})
			if err != nil {
				return err
			}
			return writeAccountResult(cmd, result, opts.JSONOutput)
		},
	}
	cmd.Flags().StringVar(&programID, "program", "", "Program that owns the account; its IDL is loaded from chain")
	cmd.Flags().StringVar(&accountType, "type", "", "Account type declared by the IDL (matched case-insensitively)")
	cmd.Flags().StringVar(&idlPath, "idl", "", "Use this IDL JSON file instead of the on-chain IDL")
	cmd.Flags().StringVar(&filePath, "file", "", "Decode saved account data instead of fetching it (- reads stdin)")
	cmd.Flags().BoolVar(&isBase64, "base64", false, "Account data file is base64 text instead of raw bytes")
	cmd.Flags().BoolVar(&compact, "compact", false, "Emit the account without indentation")
	return cmd
}

func newServeCmd(opts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve IDL documents and decoded accounts over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			server := httpapi.NewServer(newIDLService(opts, false), newAccountService(opts, false), httpapi.Options{
				Addr:           addr,
				RPCURL:         opts.RPCURL,
				RequestTimeout: opts.Timeout,
			}, slog.Default())
			return server.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envDefault("ANCHORIDL_ADDR", ":8080"), "Listen address")
	return cmd
}

func newIDLService(opts *RootOptions, compact bool) *idlapp.Service {
	var formatter idlapp.DocumentFormatter = jsondoc.Formatter{}
	if compact {
		formatter = jsondoc.Compactor{}
	}
	fetcher := solanarpc.NewFetcher(solanarpc.Options{
		HTTPClient: &http.Client{Timeout: opts.Timeout},
	})
	return idlapp.NewService(
		fetcher,
		anchorenc.Decoder{},
		zlibstream.Decompressor{MaxOutput: opts.MaxIDLBytes},
		formatter,
		hash.SHA256{},
		slog.Default(),
	)
}

func newAccountService(opts *RootOptions, compact bool) *accountapp.Service {
	var formatter accountapp.DocumentFormatter = jsondoc.Formatter{}
	if compact {
		formatter = jsondoc.Compactor{}
	}
	fetcher := solanarpc.NewFetcher(solanarpc.Options{
		HTTPClient: &http.Client{Timeout: opts.Timeout},
	})
	return accountapp.NewService(
		newIDLService(opts, true),
		fetcher,
		idllayout.Decoder{},
		formatter,
		slog.Default(),
	)
}

func readAccountInput(ctx context.Context, files filesystem.Files, filePath string, isBase64 bool) ([]byte, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return nil, fmt.Errorf("%w: use --file", ErrInputRequired)
	}
	data, err := files.ReadInput(ctx, filePath)
	if err != nil {
		return nil, err
	}
	if !isBase64 {
		return data, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return decoded, nil
}

func parseDiscriminator(value string) ([domain.DiscriminatorSize]byte, error) {
	var out [domain.DiscriminatorSize]byte
	decoded, err := hex.DecodeString(strings.TrimSpace(value))
	if err != nil || len(decoded) != domain.DiscriminatorSize {
		return out, fmt.Errorf("%w: %q", ErrInvalidDiscriminator, value)
	}
	copy(out[:], decoded)
	return out, nil
}

type idlOutput struct {
	Address         string         `json:"address,omitempty"`
	Cluster         string         `json:"cluster,omitempty"`
	Endpoint        string         `json:"endpoint,omitempty"`
	Authority       string         `json:"authority"`
	Discriminator   string         `json:"discriminator"`
	AccountBytes    int            `json:"accountBytes"`
	CompressedBytes int            `json:"compressedBytes"`
	IDLBytes        int            `json:"idlBytes"`
	SHA256          string         `json:"sha256"`
	IDL             jsontext.Value `json:"idl"`
}

func writeIDLResult(cmd *cobra.Command, result idlapp.Result, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		payload := idlOutput{
			Authority:       result.Authority.String(),
			Discriminator:   hex.EncodeToString(result.Discriminator[:]),
			AccountBytes:    result.AccountSize,
			CompressedBytes: result.CompressedSize,
			IDLBytes:        result.DecompressedSize,
			SHA256:          result.DocumentSHA256,
			IDL:             jsontext.Value(result.Document),
		}
		if !result.Address.IsZero() {
			payload.Address = result.Address.String()
		}
		payload.Cluster = result.Cluster.String()
		payload.Endpoint = result.Endpoint
		return writeJSON(out, payload)
	}

	if _, err := out.Write(result.Document); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\n")
	return err
}

type addressOutput struct {
	ProgramID     string `json:"programId"`
	ProgramSigner string `json:"programSigner"`
	Bump          uint8  `json:"bump"`
	IDLAddress    string `json:"idlAddress"`
}

func writeAddressResult(cmd *cobra.Command, result idlapp.AddressResult, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, addressOutput{
			ProgramID:     result.ProgramID.String(),
			ProgramSigner: result.Base.String(),
			Bump:          result.Bump,
			IDLAddress:    result.Address.String(),
		})
	}

	ui := newRenderer(out, asJSON)
	if err := writeKV(out, ui, "Program", result.ProgramID.String()); err != nil {
		return err
	}
	if err := writeKV(out, ui, "Program Signer", result.Base.String()); err != nil {
		return err
	}
	if err := writeKV(out, ui, "Bump", fmt.Sprintf("%d", result.Bump)); err != nil {
		return err
	}
	return writeKV(out, ui, "IDL Address", ui.ok(result.Address.String()))
}

type accountOutput struct {
	Address       string         `json:"address,omitempty"`
	ProgramID     string         `json:"programId,omitempty"`
	IDLAddress    string         `json:"idlAddress,omitempty"`
	Cluster       string         `json:"cluster,omitempty"`
	Endpoint      string         `json:"endpoint,omitempty"`
	Type          string         `json:"type"`
	Discriminator string         `json:"discriminator"`
	AccountBytes  int            `json:"accountBytes"`
	Data          jsontext.Value `json:"data"`
}

func writeAccountResult(cmd *cobra.Command, result accountapp.Result, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		payload := accountOutput{
			Cluster:       result.Cluster.String(),
			Endpoint:      result.Endpoint,
			Type:          result.Type,
			Discriminator: hex.EncodeToString(result.Discriminator[:]),
			AccountBytes:  result.AccountSize,
			Data:          jsontext.Value(result.Document),
		}
		if !result.Address.IsZero() {
			payload.Address = result.Address.String()
		}
		if !result.ProgramID.IsZero() {
			payload.ProgramID = result.ProgramID.String()
			payload.IDLAddress = result.IDLAddress.String()
		}
		return writeJSON(out, payload)
	}

	if _, err := out.Write(result.Document); err != nil {
		return err
	}
	_, err := io.WriteString(out, "\n")
	return err
}

type packOutput struct {
	Authority       string `json:"authority"`
	Discriminator   string `json:"discriminator"`
	AccountBytes    int    `json:"accountBytes"`
	CompressedBytes int    `json:"compressedBytes"`
	IDLBytes        int    `json:"idlBytes"`
	Account         string `json:"account"`
	Output          string `json:"output,omitempty"`
}

func writePackResult(cmd *cobra.Command, result packOutput, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, result)
	}
	if result.Output != "" {
		ui := newRenderer(cmd.ErrOrStderr(), asJSON)
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s %s %s\n",
			ui.ok("Wrote"), result.Output, ui.dim(fmt.Sprintf("(%d bytes)", result.AccountBytes)))
	}
	_, err := fmt.Fprintln(out, result.Account)
	return err
}

func writeJSON(out io.Writer, value any) error {
	data, err := json.Marshal(value, jsontext.WithIndent("  "))
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = out.Write(data)
	return err
}
