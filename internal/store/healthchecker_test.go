package store_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/teshtvele/groups-management/internal/store"
	"github.com/teshtvele/groups-management/internal/testutil"
)

func TestStoreHealthChecker(t *testing.T) {
	st := testutil.NewSQLiteStore(t)
	hc := store.NewHealthChecker(st, zerolog.Nop(), 0)

	if hc.Name() != "store" {
		t.Fatalf("unexpected name %q", hc.Name())
	}
	if !hc.Check(context.Background()) {
		t.Fatalf("expected healthy store")
	}

	_ = st.Close()
	if hc.Check(context.Background()) {
		t.Fatalf("expected closed store to be unhealthy")
	}
}
