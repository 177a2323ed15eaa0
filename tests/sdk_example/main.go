package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/osvaldoandrade/anchoridl/pkg/anchoridlsdk"
)

func main() {
	program := os.Getenv("ANCHORIDL_PROGRAM")
	if program == "" {
		fmt.Fprintln(os.Stderr, "ANCHORIDL_PROGRAM is required (base58 program id)")
		os.Exit(1)
	}

	cfg := anchoridlsdk.DefaultConfig()
	if cluster := os.Getenv("ANCHORIDL_CLUSTER"); cluster != "" {
		cfg.Cluster = cluster
	}
	cfg.RPCURL = os.Getenv("ANCHORIDL_RPC_URL")
	cfg.Timeout = 15 * time.Second

	client, err := anchoridlsdk.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new: %v\n", err)
		os.Exit(1)
	}

	address, err := client.IDLAddress(program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "address: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("idl account=%s\n", address)

	idl, err := client.FetchProgramIDL(context.Background(), program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
		os.Exit(1)
	}

	var header struct {
		Version      string `json:"version"`
		Name         string `json:"name"`
		Instructions []struct {
			Name string `json:"name"`
		} `json:"instructions"`
	}
	if err := idl.Unmarshal(&header); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("idl name=%s version=%s authority=%s instructions=%d\n",
		header.Name, header.Version, idl.Authority, len(header.Instructions))
	for _, ix := range header.Instructions {
		fmt.Printf("instruction %s\n", ix.Name)
	}

	accountID := os.Getenv("ANCHORIDL_ACCOUNT")
	accountType := os.Getenv("ANCHORIDL_ACCOUNT_TYPE")
	if accountID == "" || accountType == "" {
		return
	}
	account, err := client.FetchAccount(context.Background(), program, accountType, accountID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "account: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("account %s type=%s discriminator=%s\n%s\n", account.Address, account.Type, account.Discriminator, account.Document)
}
