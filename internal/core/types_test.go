package core

import (
	"strings"
	"testing"
)

func TestTranslationRequest_Validate(t *testing.T) {
	valid := TranslationRequest{
		SourceText:   "interface Eth1\n switchport mode trunk",
		TargetVendor: "Arista (EOS)",
		ModelID:      DefaultModelID,
	}

	tests := []struct {
		name    string
		mutate  func(r *TranslationRequest)
		wantErr bool
	}{
		{"valid", func(r *TranslationRequest) {}, false},
		{"empty source", func(r *TranslationRequest) { r.SourceText = "" }, true},
		{"whitespace source", func(r *TranslationRequest) { r.SourceText = "  \n\t " }, true},
		{"missing target vendor", func(r *TranslationRequest) { r.TargetVendor = "" }, true},
		{"instructions at limit", func(r *TranslationRequest) {
			r.CustomInstructions = strings.Repeat("a", MaxCustomInstructionsLength)
		}, false},
		{"instructions over limit", func(r *TranslationRequest) {
			r.CustomInstructions = strings.Repeat("a", MaxCustomInstructionsLength+1)
		}, true},
		{"multibyte instructions counted in characters", func(r *TranslationRequest) {
			r.CustomInstructions = strings.Repeat("é", MaxCustomInstructionsLength)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err.Kind != KindInput {
				t.Errorf("kind = %s, want %s", err.Kind, KindInput)
			}
		})
	}
}

func TestModelDescriptor_Target(t *testing.T) {
	tests := []struct {
		name       string
		descriptor ModelDescriptor
		want       string
	}{
		{
			name: "template with placeholder",
			descriptor: ModelDescriptor{
				ID:               "gemini-1.5-pro",
				EndpointTemplate: GeminiEndpointTemplate,
			},
			want: "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-pro:generateContent?key=secret",
		},
		{
			name: "literal endpoint",
			descriptor: ModelDescriptor{
				ID:               "local",
				EndpointTemplate: "http://127.0.0.1:9000/generate",
			},
			want: "http://127.0.0.1:9000/generate?key=secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.descriptor.Target("secret")
			if err != nil {
				t.Fatalf("Target: %v", err)
			}
			if got != tt.want {
				t.Errorf("Target = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionResult_Outcomes(t *testing.T) {
	if r := Success("ok"); !r.OK() || r.Kind() != "" || r.Outcome.String() != OutcomeLabelSuccess {
		t.Errorf("unexpected success result: %+v", r)
	}
	if r := Failure(ErrInput("x")); r.OK() || r.Kind() != KindInput {
		t.Errorf("unexpected failure result: %+v", r)
	}
	if r := Busy(); r.OK() || r.Outcome.String() != OutcomeLabelBusy {
		t.Errorf("unexpected busy result: %+v", r)
	}
	if r := NoResult(); r.OK() || r.Outcome.String() != OutcomeLabelNoResult {
		t.Errorf("unexpected no-result result: %+v", r)
	}
}
