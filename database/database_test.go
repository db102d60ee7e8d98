package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-forge/config"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(config.Config{DBUrl: filepath.Join(t.TempDir(), "formforge.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// hold two pooled connections at once so the second one cannot be
	// the one that ran the migrations
	conn1, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn1.Close()

	conn2, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn2.Close()

	var enabled int
	require.NoError(t, conn1.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)

	require.NoError(t, conn2.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestDeleteCascadesOnSecondConnection(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	conn1, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn1.Close()

	var formId int
	require.NoError(t, conn1.QueryRowContext(ctx, `
		INSERT INTO form (name, updated_at) VALUES (?, ?)
		RETURNING id`,
		"Feedback", time.Now(),
	).Scan(&formId))

	_, err = conn1.ExecContext(ctx, `
		INSERT INTO form_question (id, form_id, position, type, question, required, options, placeholder)
		VALUES ('q1', ?, 0, 'long_text', 'Comments', FALSE, '', '')`,
		formId,
	)
	require.NoError(t, err)

	var submissionId int
	require.NoError(t, conn1.QueryRowContext(ctx, `
		INSERT INTO submission (form_id, time, ip) VALUES (?, ?, '127.0.0.1')
		RETURNING id`,
		formId, time.Now(),
	).Scan(&submissionId))

	_, err = conn1.ExecContext(ctx, `
		INSERT INTO submission_answer (submission_id, question_id, question, value)
		VALUES (?, 'q1', 'Comments', '"fine"')`,
		submissionId,
	)
	require.NoError(t, err)

	// delete through a different pooled connection than the inserts used
	conn2, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn2.Close()

	_, err = conn2.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, formId)
	require.NoError(t, err)

	for _, table := range []string{"form_question", "submission", "submission_answer"} {
		var orphans int
		require.NoError(t, conn2.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&orphans))
		assert.Zerof(t, orphans, "%s rows left behind after form delete", table)
	}
}
