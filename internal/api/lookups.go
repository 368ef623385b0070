package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// LookupKind names a reference collection managed by the panel.
type LookupKind string

const (
	LookupMachines   LookupKind = "machines"
	LookupMechanisms LookupKind = "mechanisms"
	LookupSuppliers  LookupKind = "suppliers"
)

// LookupKinds lists every lookup collection.
var LookupKinds = []LookupKind{LookupMachines, LookupMechanisms, LookupSuppliers}

// ErrUnknownLookup reports a collection name the upstream does not serve.
var ErrUnknownLookup = errors.New("api: unknown lookup kind")

// ParseLookupKind validates a collection name.
func ParseLookupKind(s string) (LookupKind, error) {
	for _, k := range LookupKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLookup, s)
}

// Lookup is an entry of a machines, mechanisms or suppliers collection.
// Suppliers also carry contact details.
type Lookup struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
}

// ListLookups fetches a whole collection.
func (c *Client) ListLookups(ctx context.Context, kind LookupKind) ([]Lookup, error) {
	var list []Lookup
	err := c.getJSON(ctx, "/"+string(kind), nil, &list)
	return list, err
}

// GetLookup fetches one entry.
func (c *Client) GetLookup(ctx context.Context, kind LookupKind, id int64) (Lookup, error) {
	var l Lookup
	err := c.getJSON(ctx, lookupPath(kind, id), nil, &l)
	return l, err
}

// CreateLookup adds an entry.
func (c *Client) CreateLookup(ctx context.Context, kind LookupKind, l Lookup) (Lookup, error) {
	var saved Lookup
	err := c.doJSON(ctx, http.MethodPost, "/"+string(kind), l, &saved)
	return saved, err
}

// UpdateLookup replaces an entry.
func (c *Client) UpdateLookup(ctx context.Context, kind LookupKind, l Lookup) (Lookup, error) {
	var saved Lookup
	err := c.doJSON(ctx, http.MethodPut, lookupPath(kind, l.ID), l, &saved)
	return saved, err
}

// DeleteLookup removes an entry.
func (c *Client) DeleteLookup(ctx context.Context, kind LookupKind, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, lookupPath(kind, id), nil, nil)
}

// ImportResult reports an excel import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportLookups uploads an excel workbook to the collection's import endpoint.
func (c *Client) ImportLookups(ctx context.Context, kind LookupKind, filename string, file io.Reader) (ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return ImportResult{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return ImportResult{}, fmt.Errorf("api: buffer import: %w", err)
	}
	if err := mw.Close(); err != nil {
		return ImportResult{}, err
	}
	var result ImportResult
	err = c.do(ctx, http.MethodPost, "/"+string(kind)+"/import-excel", mw.FormDataContentType(), &buf, &result)
	return result, err
}

func lookupPath(kind LookupKind, id int64) string {
	return fmt.Sprintf("/%s/%d", kind, id)
}
