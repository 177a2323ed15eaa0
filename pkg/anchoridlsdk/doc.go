// Package anchoridlsdk resolves Anchor IDL documents from Solana accounts
// without going through the CLI.
//
// A Client fetches the account over JSON-RPC, strips the account prefix,
// decodes the stored envelope, inflates the payload and returns the JSON
// document with its original key order. FetchAccount goes one step further
// and decodes a program account with the layout that document declares.
//
// Every failure wraps one of the exported sentinels, so callers can tell the
// decode stages apart with errors.Is.
package anchoridlsdk
