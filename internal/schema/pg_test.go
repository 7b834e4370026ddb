package schema

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGProviderListEntities(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select table_name from information_schema.tables").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("posts").AddRow("users"))

	p := NewPGProvider(db, "")
	entities, err := p.ListEntities(context.Background())
	if err != nil {
		t.Fatalf("ListEntities: %v", err)
	}
	if len(entities) != 2 || entities[1] != "users" {
		t.Fatalf("entities = %v", entities)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGProviderScalarFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select kcu.column_name").
		WithArgs("public", "users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id").AddRow("email"))
	mock.ExpectQuery("select column_name, data_type, is_nullable from information_schema.columns").
		WithArgs("public", "users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
			AddRow("id", "uuid", "NO").
			AddRow("email", "text", "NO").
			AddRow("profile", "jsonb", "YES"))

	p := NewPGProvider(db, "public")
	scalars, err := p.ScalarFields(context.Background(), "users")
	if err != nil {
		t.Fatalf("ScalarFields: %v", err)
	}
	if len(scalars) != 2 {
		t.Fatalf("scalars = %v, jsonb must be filtered", scalars)
	}
	if !scalars[1].Unique || scalars[1].Name != "email" {
		t.Fatalf("email uniqueness lost: %+v", scalars[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
