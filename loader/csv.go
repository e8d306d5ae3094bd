// Copyright 2025 The cbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0

// Package loader turns tabular source files into audited JSON documents and
// bulk-inserts them through a cbkit client.
package loader

import (
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultKeyPrefix namespaces generated document keys.
const DefaultKeyPrefix = "c"

// Record is one document ready for insertion.
type Record struct {
	Key string
	Doc map[string]interface{}

	// KeyException is set when the source row had no usable ID and the
	// key was generated. The flag is also written into the document so
	// such rows can be found later with a query.
	KeyException bool
}

// Audit is the provenance block stamped into every loaded document under the
// "cr" field.
type Audit struct {
	Timestamp string `json:"dt"`
	Version   string `json:"ver"`
	By        string `json:"by"`
	Source    string `json:"src"`
	MD5       string `json:"md5"`
}

// TransformOptions controls how rows become records.
type TransformOptions struct {
	// IDField names the column whose value becomes the document key. Rows
	// where it is empty or missing get a generated UUID key and a
	// key_exception marker.
	IDField string

	// KeyPrefix namespaces keys: "<prefix>:<id>". Defaults to "c".
	KeyPrefix string

	// Source is recorded in the audit block, normally the input filename.
	Source string

	// Version is recorded in the audit block, normally the loader version.
	Version string

	// By identifies the loading principal in the audit block.
	By string

	// Now supplies the audit timestamp; defaults to time.Now.
	Now func() time.Time
}

// ReadCSV parses header-first CSV into one map per row.
func ReadCSV(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	var rows []map[string]string
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Transform converts one row into an audited record. Values that parse as
// numbers or booleans are stored typed; everything else stays a string. The
// audit MD5 covers the document content before the audit block is attached,
// so reloads of unchanged rows produce the same checksum.
func Transform(row map[string]string, opts TransformOptions) (Record, error) {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	doc := make(map[string]interface{}, len(row)+1)
	for col, val := range row {
		if col == "" {
			continue
		}
		doc[col] = coerce(val)
	}

	rec := Record{Doc: doc}
	id := row[opts.IDField]
	if id != "" {
		rec.Key = opts.KeyPrefix + ":" + id
	} else {
		rec.Key = opts.KeyPrefix + ":" + uuid.NewString()
		rec.KeyException = true
		doc["key_exception"] = true
	}

	sum, err := contentMD5(doc)
	if err != nil {
		return Record{}, fmt.Errorf("checksum %q: %w", rec.Key, err)
	}
	doc["cr"] = Audit{
		Timestamp: now().UTC().Format(time.RFC3339),
		Version:   opts.Version,
		By:        opts.By,
		Source:    opts.Source,
		MD5:       sum,
	}
	return rec, nil
}

// TransformAll maps every row through Transform.
func TransformAll(rows []map[string]string, opts TransformOptions) ([]Record, error) {
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := Transform(row, opts)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func coerce(val string) interface{} {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return val
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return val
}

// contentMD5 hashes the document fields in sorted key order so the checksum
// is stable across map iteration.
func contentMD5(doc map[string]interface{}) (string, error) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := md5.New()
	for _, k := range keys {
		encoded, err := json.Marshal(doc[k])
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s=%s;", k, encoded)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
