package database

import (
	"context"
	"strings"
	"testing"
)

func TestConnect_InvalidConnString(t *testing.T) {
	_, err := Connect(context.Background(), Config{URL: "postgres://%zz"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "parse connection string") {
		t.Errorf("error = %q, want parse connection string error", err.Error())
	}
}
