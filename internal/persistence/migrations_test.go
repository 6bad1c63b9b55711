package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const addSubjectIndex = `CREATE INDEX tickets_subject_idx ON tickets (subject);`

func migrationFiles() fstest.MapFS {
	return fstest.MapFS{
		"001_init.sql":        {Data: []byte(`CREATE TABLE customers (id UUID PRIMARY KEY);`)},
		"002_subject.sql":     {Data: []byte(addSubjectIndex)},
		"README.md":           {Data: []byte("not sql")},
		"archive/000_old.sql": {Data: []byte(`DROP TABLE everything;`)},
	}
}

func TestRunMigrationsSkipsRecordedVersions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT version FROM schema_migrations`)).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow("001_init.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(addSubjectIndex)).
		WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO schema_migrations (version) VALUES ($1)`)).
		WithArgs("002_subject.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock, migrationFiles(), zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsIsNoopWhenEverythingApplied(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT version FROM schema_migrations`)).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow("001_init.sql").AddRow("002_subject.sql"))

	require.NoError(t, RunMigrations(context.Background(), mock, migrationFiles(), zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsRollsBackFailedFile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT version FROM schema_migrations`)).
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow("001_init.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(addSubjectIndex)).
		WillReturnError(errors.New(`relation "tickets" does not exist`))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, migrationFiles(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migration 002_subject.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}
