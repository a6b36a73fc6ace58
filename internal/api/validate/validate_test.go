package validate

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{"positive", "42", 42, false},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"text", "abc", 0, true},
		{"missing", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r = mux.SetURLVars(r, map[string]string{"groupId": tt.raw})
			got, err := ID(r, "groupId")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ID(%q) = %d, %v", tt.raw, got, err)
			}
		})
	}
}

func TestPage(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=10&offset=20", nil)
	limit, offset, err := Page(r)
	if err != nil || limit != 10 || offset != 20 {
		t.Fatalf("Page = %d, %d, %v", limit, offset, err)
	}

	r = httptest.NewRequest("GET", "/", nil)
	if limit, offset, err = Page(r); err != nil || limit != 0 || offset != 0 {
		t.Fatalf("empty Page = %d, %d, %v", limit, offset, err)
	}

	r = httptest.NewRequest("GET", "/?limit=-1", nil)
	if _, _, err = Page(r); err == nil {
		t.Fatalf("expected error for negative limit")
	}
}

func TestTimestamp(t *testing.T) {
	r := httptest.NewRequest("GET", "/?timestamp=2024-03-01T12:00:00%2B03:00", nil)
	got, err := Timestamp(r, "timestamp")
	if err != nil {
		t.Fatalf("Timestamp: %v", err)
	}
	if want := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("Timestamp = %v, want %v", got, want)
	}

	r = httptest.NewRequest("GET", "/", nil)
	if _, err := Timestamp(r, "timestamp"); err == nil || !strings.Contains(err.Error(), "required") {
		t.Fatalf("expected required error, got %v", err)
	}

	r = httptest.NewRequest("GET", "/?timestamp=yesterday", nil)
	if _, err := Timestamp(r, "timestamp"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDate(t *testing.T) {
	got, err := Date("birthDate", "1990-02-28")
	if err != nil || !got.Equal(time.Date(1990, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Date = %v, %v", got, err)
	}
	if got, err := Date("birthDate", ""); err != nil || !got.IsZero() {
		t.Fatalf("empty Date = %v, %v", got, err)
	}
	if _, err := Date("birthDate", "28.02.1990"); err == nil {
		t.Fatalf("expected error for dotted date")
	}
}

func TestMaxLen(t *testing.T) {
	s := strings.Repeat("я", 10)
	if err := MaxLen("address", &s, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := MaxLen("address", &s, 9); err == nil {
		t.Fatalf("expected length error")
	}
	if err := MaxLen("address", nil, 1); err != nil {
		t.Fatalf("nil value: %v", err)
	}
}
