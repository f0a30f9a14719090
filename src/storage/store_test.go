package storage

import (
	"testing"

	"trader-gateway/src/logger"
	"trader-gateway/src/models"
)

func TestPostgresQueryRewrite(t *testing.T) {
	db := newPostgresDB(&models.MConfig{}, "gateway", logger.NewLogger(nil, "TestStorage"))

	got := db.rewrite(`INSERT INTO {orders} (a, b) VALUES (?, ?) -- {double}`, "orders")
	want := `INSERT INTO "gateway"."orders" (a, b) VALUES ($1, $2) -- DOUBLE PRECISION`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestSQLiteQueryRewrite(t *testing.T) {
	db, _ := NewAsyncSQLiteDB(&models.MConfig{}, logger.NewLogger(nil, "TestStorage"))

	got := db.rewrite(`SELECT * FROM {trades} WHERE id = ? -- {bigint}`, "trades")
	want := `SELECT * FROM trades WHERE id = ? -- INTEGER`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestPage(t *testing.T) {
	tests := []struct{ limit, offset, wantLimit, wantOffset int }{
		{0, 0, defaultPageSize, 0},
		{-5, -1, defaultPageSize, 0},
		{20, 40, 20, 40},
	}
	for _, tc := range tests {
		l, o := page(tc.limit, tc.offset)
		if l != tc.wantLimit || o != tc.wantOffset {
			t.Errorf("page(%d, %d) = %d, %d", tc.limit, tc.offset, l, o)
		}
	}
}
