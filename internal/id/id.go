// Package id generates the prefixed identifiers used for every Workbets document.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each collection. An id carries its collection so a stray
// option id can never be mistaken for a wager id in logs or requests.
const (
	PrefixWorkplace   = "wp"
	PrefixUser        = "usr"
	PrefixCredential  = "cred"
	PrefixWager       = "wgr"
	PrefixOption      = "opt"
	PrefixWagerTag    = "wtag"
	PrefixTagOption   = "tag"
	PrefixVote        = "vote"
	PrefixTransaction = "txn"
)

// Generate creates a prefixed NanoID, e.g. "wgr-V1StGXR8_Z5jdHi6B-myT".
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	nid, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + nid, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}

// HasPrefix reports whether v was generated with prefix.
func HasPrefix(v, prefix string) bool {
	return strings.HasPrefix(v, prefix+"-") && len(v) > len(prefix)+1
}
