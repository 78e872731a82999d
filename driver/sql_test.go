/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package driver_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrykodden/trx/driver"
)

func TestSQLDriverExecuteAndQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO CUSTOMER").
		WithArgs(1, "ada").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT \\* FROM CUSTOMER").
		WillReturnRows(sqlmock.NewRows([]string{"ID", "NAME"}).AddRow(1, "ada"))

	d := driver.NewSQL(db)
	ctx := context.Background()
	require.NoError(t, d.Initialize(ctx))

	affected, err := d.ExecuteSQL(ctx, "INSERT INTO CUSTOMER VALUES (?, ?)", []driver.Param{
		{Name: "ID", Value: 1},
		{Name: "NAME", Value: "ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	rows, err := d.QuerySQL(ctx, "SELECT * FROM CUSTOMER", nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ada", rows[0]["NAME"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLDriverCursorLifecycle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT \\* FROM CUSTOMER").
		WillReturnRows(sqlmock.NewRows([]string{"ID"}).AddRow(1).AddRow(2))

	d := driver.NewSQL(db)
	ctx := context.Background()

	require.NoError(t, d.OpenCursor(ctx, "C1", "SELECT * FROM CUSTOMER", nil))

	has, err := d.CursorNext(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, has)

	row, err := d.CursorGetRow(ctx, "C1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, row["ID"])

	has, err = d.CursorNext(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = d.CursorNext(ctx, "C1")
	require.NoError(t, err)
	assert.False(t, has, "cursor should be exhausted after its two rows")

	require.NoError(t, d.CloseCursor(ctx, "C1"))
	_, err = d.CursorGetRow(ctx, "C1")
	assert.Error(t, err, "row lookup on a closed cursor should fail")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLDriverTransactionLifecycle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE CUSTOMER").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d := driver.NewSQL(db)
	ctx := context.Background()

	inTx, err := d.IsInTransaction(ctx)
	require.NoError(t, err)
	assert.False(t, inTx)

	require.NoError(t, d.BeginTransaction(ctx))
	inTx, err = d.IsInTransaction(ctx)
	require.NoError(t, err)
	assert.True(t, inTx)

	_, err = d.ExecuteSQL(ctx, "UPDATE CUSTOMER SET NAME = ? WHERE ID = ?", []driver.Param{
		{Name: "NAME", Value: "bob"},
		{Name: "ID", Value: 1},
	})
	require.NoError(t, err)

	require.NoError(t, d.CommitTransaction(ctx))
	inTx, err = d.IsInTransaction(ctx)
	require.NoError(t, err)
	assert.False(t, inTx)

	require.NoError(t, mock.ExpectationsWereMet())
}
