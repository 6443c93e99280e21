package adapter

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

// stubAdapter is a minimal adapter for registry tests.
type stubAdapter struct {
	BaseSQLAdapter
}

func (s *stubAdapter) Connect(_ context.Context, _ Config) error { return nil }
func (s *stubAdapter) GetTableMetadata(_ context.Context, _ string) (*Metadata, error) {
	return &Metadata{}, nil
}
func (s *stubAdapter) LoadDelimited(_ context.Context, _, _ string, _ LoadOptions) error {
	return nil
}

func TestRegisterAndGet(t *testing.T) {
	Register("stub", func(logger *slog.Logger) Adapter {
		return &stubAdapter{BaseSQLAdapter: BaseSQLAdapter{Logger: logger}}
	})

	if !IsRegistered("stub") {
		t.Error("stub adapter should be registered")
	}
	if _, ok := Get("stub"); !ok {
		t.Error("Get should find the stub adapter")
	}
	if _, ok := Get("missing"); ok {
		t.Error("Get should not find unregistered adapters")
	}
}

func TestNewAdapter(t *testing.T) {
	Register("stub2", func(logger *slog.Logger) Adapter {
		return &stubAdapter{BaseSQLAdapter: BaseSQLAdapter{Logger: logger}}
	})

	a, err := NewAdapter(Config{Type: "stub2"}, nil)
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	if a == nil {
		t.Fatal("expected an adapter instance")
	}
}

func TestNewAdapter_EmptyType(t *testing.T) {
	if _, err := NewAdapter(Config{}, nil); err == nil {
		t.Error("expected error for empty adapter type")
	}
}

func TestNewAdapter_Unknown(t *testing.T) {
	_, err := NewAdapter(Config{Type: "oracle"}, nil)
	if err == nil {
		t.Fatal("expected error for unknown adapter type")
	}

	var unknownErr *UnknownAdapterError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownAdapterError, got %T", err)
	}
	if unknownErr.Type != "oracle" {
		t.Errorf("error type = %q, want oracle", unknownErr.Type)
	}
}

func TestListAdapters_Sorted(t *testing.T) {
	Register("zzz", func(logger *slog.Logger) Adapter { return &stubAdapter{} })
	Register("aaa", func(logger *slog.Logger) Adapter { return &stubAdapter{} })

	names := ListAdapters()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("adapter names not sorted: %v", names)
			break
		}
	}
}

func TestParseQualifiedName(t *testing.T) {
	tests := []struct {
		name       string
		table      string
		defSchema  string
		wantSchema string
		wantTable  string
	}{
		{"bare", "policies", "main", "main", "policies"},
		{"qualified", "analytics.policies", "main", "analytics", "policies"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, table := ParseQualifiedName(tt.table, tt.defSchema)
			if schema != tt.wantSchema || table != tt.wantTable {
				t.Errorf("ParseQualifiedName(%q, %q) = (%q, %q), want (%q, %q)",
					tt.table, tt.defSchema, schema, table, tt.wantSchema, tt.wantTable)
			}
		})
	}
}
