package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestValidateHeadshot(t *testing.T) {
	tests := []struct {
		name string
		file Upload
		want error
	}{
		{"jpeg", Upload{ContentType: "image/jpeg", Size: 1024}, nil},
		{"webp at limit", Upload{ContentType: "image/webp", Size: MaxHeadshotSize}, nil},
		{"too large", Upload{ContentType: "image/png", Size: MaxHeadshotSize + 1}, ErrTooLarge},
		{"gif", Upload{ContentType: "image/gif", Size: 10}, ErrNotImage},
		{"pdf", Upload{ContentType: "application/pdf", Size: 10}, ErrNotImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateHeadshot(tt.file); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUploadWithoutCredentials(t *testing.T) {
	s, err := NewCloudinaryStorage("", "", "", zap.NewNop())
	if err != nil || s != nil {
		t.Fatalf("expected no storage without credentials, got %v %v", s, err)
	}
	_, err = s.UploadHeadshot(context.Background(), Upload{ContentType: "image/png", Size: 10, Body: strings.NewReader("x")})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestUploadRejectsMislabelledFile(t *testing.T) {
	s, err := NewCloudinaryStorage("demo", "key", "secret", zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := strings.NewReader("#!/bin/sh\necho this is not a picture\n")
	_, err = s.UploadHeadshot(context.Background(), Upload{Filename: "me.png", ContentType: "image/png", Size: int64(body.Len()), Body: body})
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
}
