package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	_, ok := From(ctx)
	assert.False(t, ok)

	assert.Equal(t, ctx, WithTx(ctx, nil), "nil tx leaves the context untouched")

	tx := &sql.Tx{}
	got, ok := From(WithTx(ctx, tx))
	assert.True(t, ok)
	assert.Same(t, tx, got)
}

func TestConn(t *testing.T) {
	db := &sql.DB{}
	assert.Same(t, db, Conn(context.Background(), db))

	tx := &sql.Tx{}
	assert.Same(t, tx, Conn(WithTx(context.Background(), tx), db))
}

func TestAfterCommit(t *testing.T) {
	var ran []string

	AfterCommit(context.Background(), func() { ran = append(ran, "now") })
	assert.Equal(t, []string{"now"}, ran)

	ctx, run := WithCommitHooks(context.Background())
	AfterCommit(ctx, func() { ran = append(ran, "first") })

	inner, innerRun := WithCommitHooks(ctx)
	AfterCommit(inner, func() { ran = append(ran, "second") })
	innerRun()
	assert.Equal(t, []string{"now"}, ran, "nested scopes wait for the outer commit")

	run()
	assert.Equal(t, []string{"now", "first", "second"}, ran)

	run()
	assert.Len(t, ran, 3, "hooks run once")
}
