// Package source provides ops.InputFactory implementations that pull
// rows from outside the process, starting with a database/sql-backed
// reader. Reflect-based scan-type resolution is grounded on the
// teacher's mysqlshim row iterator (enginetest/mysqlshim/iter.go), which
// resolves each column's Go scan type once per query instead of per row.
package source

import (
	dsql "database/sql"
	"context"
	"io"
	"reflect"
	"time"

	"github.com/pkg/errors"

	"github.com/rowkit/compgraph/errs"
	"github.com/rowkit/compgraph/ops"
	"github.com/rowkit/compgraph/row"
)

// FromDB returns an ops.InputFactory that runs query against db (with
// args) and yields one Row per result row, columns named after the
// query's result columns. The query runs once per call to the returned
// factory — call it again for a second pass over the same rows (spec
// §4.6.1: sources must be repeatable, like file-backed ones).
func FromDB(ctx context.Context, db *dsql.DB, query string, args ...interface{}) ops.InputFactory {
	return func() row.Iter {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return row.ErrIter(errs.IO.New(errors.Wrap(err, "querying db source").Error()))
		}
		cols, err := rows.Columns()
		if err != nil {
			_ = rows.Close()
			return row.ErrIter(errs.IO.New(errors.Wrap(err, "reading db source columns").Error()))
		}
		types, err := scanTypes(rows)
		if err != nil {
			_ = rows.Close()
			return row.ErrIter(errs.IO.New(errors.Wrap(err, "resolving db source column types").Error()))
		}
		return &dbIter{rows: rows, cols: cols, types: types}
	}
}

// scanTypes resolves one reflect.Type per column, substituting a
// concrete Go type for the nullable sql.Null* wrappers drivers commonly
// report, mirroring the teacher's switch in mysqlshim.newMySQLIter.
func scanTypes(rows *dsql.Rows) ([]reflect.Type, error) {
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	types := make([]reflect.Type, len(columnTypes))
	for i, ct := range columnTypes {
		scanType := ct.ScanType()
		switch scanType {
		case reflect.TypeOf(dsql.RawBytes{}):
			scanType = reflect.TypeOf("")
		case reflect.TypeOf(dsql.NullBool{}):
			scanType = reflect.TypeOf(true)
		case reflect.TypeOf(dsql.NullByte{}):
			scanType = reflect.TypeOf(byte(0))
		case reflect.TypeOf(dsql.NullFloat64{}):
			scanType = reflect.TypeOf(float64(0))
		case reflect.TypeOf(dsql.NullInt16{}):
			scanType = reflect.TypeOf(int16(0))
		case reflect.TypeOf(dsql.NullInt32{}):
			scanType = reflect.TypeOf(int32(0))
		case reflect.TypeOf(dsql.NullInt64{}):
			scanType = reflect.TypeOf(int64(0))
		case reflect.TypeOf(dsql.NullString{}):
			scanType = reflect.TypeOf("")
		case reflect.TypeOf(dsql.NullTime{}):
			scanType = reflect.TypeOf(time.Time{})
		case nil:
			scanType = reflect.TypeOf("")
		}
		types[i] = scanType
	}
	return types, nil
}

type dbIter struct {
	rows  *dsql.Rows
	cols  []string
	types []reflect.Type
}

// Next implements row.Iter.
func (d *dbIter) Next() (row.Row, error) {
	if !d.rows.Next() {
		if err := d.rows.Err(); err != nil {
			return row.Row{}, errs.IO.New(errors.Wrap(err, "reading db source").Error())
		}
		return row.Row{}, io.EOF
	}

	dest := make([]interface{}, len(d.types))
	for i, typ := range d.types {
		dest[i] = reflect.New(typ).Interface()
	}
	if err := d.rows.Scan(dest...); err != nil {
		return row.Row{}, errs.IO.New(errors.Wrap(err, "scanning db source row").Error())
	}

	out := row.New()
	for i, col := range d.cols {
		v := reflect.ValueOf(dest[i])
		var val interface{}
		if !v.IsNil() {
			val = v.Elem().Interface()
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
		}
		out = out.Set(col, val)
	}
	return out, nil
}

// Close implements row.Iter.
func (d *dbIter) Close() error {
	return d.rows.Close()
}
