package gate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AllowList names the request paths a billing restricted tenant may still write to.
type AllowList struct {
	// Exact paths, compared after dropping a trailing slash.
	Exact []string `yaml:"exact"`

	// Prefixes match the prefix itself and any path below it on a segment boundary, so
	// /api/payment-connection does not cover /api/payment-connectionsexport.
	Prefixes []string `yaml:"prefixes"`
}

// DefaultAllowList lets restricted tenants start a subscription and manage their
// payment connection.
func DefaultAllowList() AllowList {
	return AllowList{
		Exact:    []string{"/api/subscription/start"},
		Prefixes: []string{"/api/payment-connection"},
	}
}

// LoadAllowList reads an allow-list from a YAML file:
//
//	exact:
//	  - /api/subscription/start
//	prefixes:
//	  - /api/payment-connection
func LoadAllowList(path string) (AllowList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AllowList{}, fmt.Errorf("failed to read allow-list: %w", err)
	}
	return ParseAllowList(data)
}

// ParseAllowList decodes YAML, rejecting unknown keys and relative paths.
func ParseAllowList(data []byte) (AllowList, error) {
	var list AllowList

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&list); err != nil && !errors.Is(err, io.EOF) {
		return AllowList{}, fmt.Errorf("failed to parse allow-list: %w", err)
	}

	if err := list.Validate(); err != nil {
		return AllowList{}, err
	}
	return list, nil
}

// Validate checks every entry is an absolute path.
func (a AllowList) Validate() error {
	for _, p := range append(append([]string{}, a.Exact...), a.Prefixes...) {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("allow-list entry %q must start with /", p)
		}
	}
	return nil
}

// Allows reports whether path is allow-listed.
func (a AllowList) Allows(path string) bool {
	trimmed := path
	if len(trimmed) > 1 {
		trimmed = strings.TrimSuffix(trimmed, "/")
	}

	for _, exact := range a.Exact {
		if trimmed == exact {
			return true
		}
	}
	for _, prefix := range a.Prefixes {
		base := strings.TrimSuffix(prefix, "/")
		if trimmed == base || strings.HasPrefix(path, base+"/") {
			return true
		}
	}
	return false
}
