package validation

import (
	"strings"
	"testing"
)

type rateHolder struct {
	Rate string `validate:"omitempty,limiter_rate"`
}

type argvHolder struct {
	Argv []string `validate:"argv"`
}

func TestLimiterRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rate    string
		wantErr bool
	}{
		{name: "per second", rate: "50-S"},
		{name: "per hour", rate: "1000-H"},
		{name: "empty allowed", rate: ""},
		{name: "garbage", rate: "fast", wantErr: true},
		{name: "bad period", rate: "10-W", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Struct(rateHolder{Rate: tt.rate})
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestArgv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		argv    []string
		wantErr bool
	}{
		{name: "program with flags", argv: []string{"top", "-b", "-n1"}},
		{name: "program only", argv: []string{"free"}},
		{name: "nil", argv: nil, wantErr: true},
		{name: "blank program", argv: []string{"  ", "-h"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Struct(argvHolder{Argv: tt.argv})
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStruct_ErrorMessageNamesField(t *testing.T) {
	t.Parallel()

	err := Struct(argvHolder{})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "argvHolder.Argv") {
		t.Errorf("Expected error to name the field, got %q", err.Error())
	}
}
