package core

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// TranslationRequest is built fresh for every translate action and not modified afterwards.
type TranslationRequest struct {
	SourceText         string `json:"source_text"`
	SourceVendor       string `json:"source_vendor,omitempty"`
	SourceOS           string `json:"source_os,omitempty"`
	TargetVendor       string `json:"target_vendor"`
	TargetOS           string `json:"target_os,omitempty"`
	ModelID            string `json:"model"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
}

// Validate checks the request at the boundary, before any prompt is built.
func (r TranslationRequest) Validate() *Error {
	if strings.TrimSpace(r.SourceText) == "" {
		return ErrInput("Please enter a source configuration.")
	}
	if len(r.SourceText) > MaxSourceTextLength {
		return ErrInputf("source configuration exceeds %d bytes", MaxSourceTextLength)
	}
	if strings.TrimSpace(r.TargetVendor) == "" {
		return ErrInput("Please select a target vendor.")
	}
	return ValidateCustomInstructions(r.CustomInstructions)
}

// ValidateCustomInstructions enforces the custom instruction length limit.
func ValidateCustomInstructions(s string) *Error {
	if n := utf8.RuneCountInString(s); n > MaxCustomInstructionsLength {
		return ErrInputf("custom instructions are %d characters, limit is %d", n, MaxCustomInstructionsLength)
	}
	return nil
}

// ModelDescriptor describes one selectable backend model.
type ModelDescriptor struct {
	ID               string `json:"id"`
	DisplayName      string `json:"name"`
	Description      string `json:"description"`
	EndpointTemplate string `json:"url"`
}

// Target returns the fully-qualified call target for the given credential.
func (m ModelDescriptor) Target(credential string) (string, error) {
	endpoint := strings.ReplaceAll(m.EndpointTemplate, ModelPlaceholder, url.PathEscape(m.ID))
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(CredentialQueryParam, credential)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ModelInfo is the public view of a ModelDescriptor offered to callers.
type ModelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"name"`
	Description string `json:"description"`
}

// ModelList is the model listing response.
type ModelList struct {
	Default  string      `json:"default"`
	Degraded bool        `json:"degraded"`
	Data     []ModelInfo `json:"data"`
}

// RequestStats holds aggregated request statistics for monitoring.
type RequestStats struct {
	TotalRequests      int64           `json:"total_requests"`
	SuccessfulRequests int64           `json:"successful_requests"`
	FailedRequests     int64           `json:"failed_requests"`
	TotalResponseTime  int64           `json:"total_response_time"`
	LastRequestTime    time.Time       `json:"last_request_time"`
	RequestHistory     []RequestRecord `json:"request_history"`
}

// RequestRecord represents a single action's metadata for history tracking.
type RequestRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	ResponseTime int64     `json:"response_time"`
	Action       string    `json:"action"`
	Model        string    `json:"model"`
}

// PeriodStats holds computed statistics for a time period.
type PeriodStats struct {
	Requests        int64            `json:"requests"`
	SuccessRate     float64          `json:"successRate"`
	AvgResponseTime int64            `json:"avgResponseTime"`
	QPS             float64          `json:"qps"`
	ByAction        map[string]int64 `json:"byAction"`
}
