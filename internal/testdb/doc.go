// Package testdb provides helpers for tests that need a real postgres with
// pgvector. Tests using it are skipped unless DUDOXX_TEST_DATABASE_URL is set,
// and are normally compiled only with the "integration" build tag.
//
// Typical use:
//
//	db := testdb.Open(t)
//	testdb.ApplyMigrations(t, db)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//		// use tx
//	})
package testdb
