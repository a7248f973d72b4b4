// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package payload

import "time"

// Metric is a single named value inside a payload envelope.
type Metric struct {
	Name         string    `json:"name,omitempty"`
	Alias        uint64    `json:"alias,omitempty"`
	Timestamp    time.Time `json:"timestamp,omitempty"`
	DataType     string    `json:"data_type,omitempty"`
	IsHistorical bool      `json:"is_historical,omitempty"`
	IsTransient  bool      `json:"is_transient,omitempty"`
	IsNull       bool      `json:"is_null,omitempty"`
	Value        any       `json:"value,omitempty"`
}

// DataSet is the tabular metric value container.
type DataSet struct {
	NumColumns uint64   `json:"num_of_columns,omitempty"`
	Columns    []string `json:"column_names,omitempty"`
	Types      []string `json:"types,omitempty"`
	Rows       []Row    `json:"rows,omitempty"`
}

// Row is one row of a DataSet.
type Row struct {
	Elements []any `json:"elements,omitempty"`
}

// Template is the structured metric value container describing a reusable
// group of member metrics.
type Template struct {
	Version      string      `json:"version,omitempty"`
	TemplateRef  string      `json:"template_ref,omitempty"`
	IsDefinition bool        `json:"is_definition,omitempty"`
	Metrics      []Metric    `json:"metrics,omitempty"`
	Parameters   []Parameter `json:"parameters,omitempty"`
}

// Parameter is a named, typed template parameter.
type Parameter struct {
	Name  string `json:"name,omitempty"`
	Type  string `json:"type,omitempty"`
	Value any    `json:"value,omitempty"`
}
