// Package credential handles the serialized authentication material that
// lets the bot resume a session without interactive pairing.
//
// The credential itself is produced by the transport and treated as an
// opaque JSON document here. The codec never fabricates or interprets
// individual fields. A credential is only valid alongside the matching
// key store in the session directory it was captured from.
package credential

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TokenPrefix is the literal tag prepended to encoded tokens so they are
// self-identifying. Decode accepts tokens with or without it.
const TokenPrefix = "VORTE_"

// credsFile is the on-disk name of the credential document inside a
// session directory.
const credsFile = "creds.json"

// Credential is the transport's authentication document. Field names and
// contents belong to the transport; only the JSON shape matters here.
type Credential map[string]json.RawMessage

// DecodeError reports a token that could not be decoded. Decoding is
// total: a DecodeError means nothing was applied.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode credential token: %s: %v", e.Reason, e.Err)
	}
	return "decode credential token: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode serializes a credential to a portable token: canonical JSON,
// base64, prefixed with TokenPrefix.
func Encode(c Credential) (string, error) {
	if len(c) == 0 {
		return "", fmt.Errorf("encode credential: empty document")
	}
	data, err := canonicalJSON(c)
	if err != nil {
		return "", fmt.Errorf("encode credential: %w", err)
	}
	return TokenPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// Decode parses a token produced by Encode. The prefix is optional so
// tokens copied without it still work. Any structural mismatch yields a
// *DecodeError and no partial credential.
func Decode(token string) (Credential, error) {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, TokenPrefix)
	if token == "" {
		return nil, &DecodeError{Reason: "empty token"}
	}

	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, &DecodeError{Reason: "not base64", Err: err}
	}

	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &DecodeError{Reason: "not a JSON object", Err: err}
	}
	if len(c) == 0 {
		return nil, &DecodeError{Reason: "empty credential document"}
	}
	return c, nil
}

// Load reads the credential document from a session directory.
func Load(dir string) (Credential, error) {
	data, err := os.ReadFile(filepath.Join(dir, credsFile))
	if err != nil {
		return nil, err
	}
	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", credsFile, err)
	}
	return c, nil
}

// Save writes the credential document into a session directory. The file
// is the transport's to consume; permissions are owner-only.
func Save(dir string, c Credential) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, credsFile), data, 0o600)
}

// Exists reports whether a session directory holds a credential document.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, credsFile))
	return err == nil
}

// Remove deletes the credential document from a session directory.
// Required to recover from a terminal logout.
func Remove(dir string) error {
	err := os.Remove(filepath.Join(dir, credsFile))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// canonicalJSON marshals with sorted keys so Encode is deterministic for
// the same document.
func canonicalJSON(c Credential) ([]byte, error) {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(c[k])
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}
