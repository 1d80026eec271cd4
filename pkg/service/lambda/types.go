package lambda

import "time"

// Function summarizes one function configuration.
type Function struct {
	Name         string            `json:"function_name"`
	ARN          string            `json:"function_arn"`
	Runtime      string            `json:"runtime"`
	Handler      string            `json:"handler"`
	Role         string            `json:"role"`
	MemoryMB     int32             `json:"memory_size"`
	TimeoutSec   int32             `json:"timeout"`
	CodeSize     int64             `json:"code_size"`
	Description  string            `json:"description,omitempty"`
	LastModified string            `json:"last_modified"`
	Version      string            `json:"version"`
	State        string            `json:"state,omitempty"`
	Environment  map[string]string `json:"environment,omitempty"`
}

// FunctionDetail is a function plus its code location and tags.
type FunctionDetail struct {
	Function
	CodeLocation string            `json:"code_location,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
}

// Alias points a name at a function version.
type Alias struct {
	Name            string `json:"name"`
	ARN             string `json:"alias_arn"`
	FunctionVersion string `json:"function_version"`
	Description     string `json:"description,omitempty"`
}

// EventSourceMapping links an event source to a function.
type EventSourceMapping struct {
	UUID           string     `json:"uuid"`
	EventSourceARN string     `json:"event_source_arn"`
	FunctionARN    string     `json:"function_arn"`
	State          string     `json:"state"`
	BatchSize      int32      `json:"batch_size"`
	LastModified   *time.Time `json:"last_modified,omitempty"`
}
