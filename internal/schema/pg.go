package schema

import (
	"context"
	"database/sql"
	"strings"
)

// PGProvider introspects a PostgreSQL schema via information_schema.
type PGProvider struct {
	db     *sql.DB
	schema string
}

var _ Provider = (*PGProvider)(nil)

// NewPGProvider builds a provider over db, defaulting to the public
// schema.
func NewPGProvider(db *sql.DB, schemaName string) *PGProvider {
	if schemaName == "" {
		schemaName = "public"
	}
	return &PGProvider{db: db, schema: schemaName}
}

func (p *PGProvider) ListEntities(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`select table_name from information_schema.tables
		 where table_schema=$1 and table_type='BASE TABLE' order by table_name`, p.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		entities = append(entities, name)
	}
	return entities, rows.Err()
}

func (p *PGProvider) Fields(ctx context.Context, entity string) ([]Field, error) {
	unique, err := p.uniqueColumns(ctx, entity)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx,
		`select column_name, data_type, is_nullable from information_schema.columns
		 where table_schema=$1 and table_name=$2 order by ordinal_position`, p.schema, entity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []Field
	for rows.Next() {
		var (
			name, dataType, nullable string
		)
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, err
		}
		_, isUnique := unique[name]
		fields = append(fields, Field{
			Name:     name,
			Type:     dataType,
			Unique:   isUnique,
			Nullable: strings.EqualFold(nullable, "YES"),
		})
	}
	return fields, rows.Err()
}

func (p *PGProvider) ScalarFields(ctx context.Context, entity string) ([]Field, error) {
	fields, err := p.Fields(ctx, entity)
	if err != nil {
		return nil, err
	}
	scalars := fields[:0]
	for _, f := range fields {
		if isScalarType(f.Type) {
			scalars = append(scalars, f)
		}
	}
	return scalars, nil
}

func (p *PGProvider) PrimaryKey(ctx context.Context, entity string) (string, error) {
	row := p.db.QueryRowContext(ctx,
		`select kcu.column_name
		 from information_schema.table_constraints tc
		 join information_schema.key_column_usage kcu
		   on kcu.constraint_name = tc.constraint_name and kcu.table_schema = tc.table_schema
		 where tc.table_schema=$1 and tc.table_name=$2 and tc.constraint_type='PRIMARY KEY'
		 order by kcu.ordinal_position limit 1`, p.schema, entity)
	var pk string
	if err := row.Scan(&pk); err != nil {
		if err == sql.ErrNoRows {
			return "id", nil
		}
		return "", err
	}
	return pk, nil
}

func (p *PGProvider) Relations(ctx context.Context, entity string) ([]Relation, error) {
	rows, err := p.db.QueryContext(ctx,
		`select kcu.column_name, ccu.table_name
		 from information_schema.table_constraints tc
		 join information_schema.key_column_usage kcu
		   on kcu.constraint_name = tc.constraint_name and kcu.table_schema = tc.table_schema
		 join information_schema.constraint_column_usage ccu
		   on ccu.constraint_name = tc.constraint_name and ccu.table_schema = tc.table_schema
		 where tc.table_schema=$1 and tc.table_name=$2 and tc.constraint_type='FOREIGN KEY'`,
		p.schema, entity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []Relation
	for rows.Next() {
		var rel Relation
		if err := rows.Scan(&rel.Field, &rel.References); err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// uniqueColumns returns columns covered by a single-column UNIQUE or
// PRIMARY KEY constraint.
func (p *PGProvider) uniqueColumns(ctx context.Context, entity string) (map[string]struct{}, error) {
	rows, err := p.db.QueryContext(ctx,
		`select kcu.column_name
		 from information_schema.table_constraints tc
		 join information_schema.key_column_usage kcu
		   on kcu.constraint_name = tc.constraint_name and kcu.table_schema = tc.table_schema
		 where tc.table_schema=$1 and tc.table_name=$2
		   and tc.constraint_type in ('UNIQUE','PRIMARY KEY')`, p.schema, entity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	unique := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		unique[name] = struct{}{}
	}
	return unique, rows.Err()
}

func isScalarType(t string) bool {
	switch strings.ToLower(t) {
	case "array", "user-defined", "json", "jsonb", "tsvector":
		return false
	}
	return true
}
