package validation

import (
	"strings"
	"testing"
)

type sampleConfig struct {
	Streams int    `yaml:"streams" validate:"min=1,max=16"`
	Format  string `yaml:"format" validate:"oneof=text json yaml"`
	Addr    string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
	Name    string `validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name        string
		cfg         sampleConfig
		expectError bool
		errorFields []string
	}{
		{
			name: "valid",
			cfg:  sampleConfig{Streams: 8, Format: "text", Name: "demo"},
		},
		{
			name: "valid with address",
			cfg:  sampleConfig{Streams: 1, Format: "yaml", Addr: "localhost:9090", Name: "demo"},
		},
		{
			name:        "streams too low",
			cfg:         sampleConfig{Streams: 0, Format: "text", Name: "demo"},
			expectError: true,
			errorFields: []string{"streams: must be at least 1"},
		},
		{
			name:        "several failures use yaml names",
			cfg:         sampleConfig{Streams: 17, Format: "xml", Addr: "nope"},
			expectError: true,
			errorFields: []string{
				"streams: must not exceed 16",
				"format: must be one of [text json yaml]",
				"metrics_addr: must be host:port",
				"Name: field is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.cfg)
			if (err != nil) != tt.expectError {
				t.Fatalf("ValidateStruct() error = %v, expectError %v", err, tt.expectError)
			}
			for _, want := range tt.errorFields {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q missing %q", err.Error(), want)
				}
			}
		})
	}
}

func TestValidateStruct_Nil(t *testing.T) {
	if err := ValidateStruct(nil); err == nil {
		t.Error("Expected error for nil value")
	}
}
