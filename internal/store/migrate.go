package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"entgo.io/ent"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/mixingo/mixingo/ent/schema"
)

// Table names.
const (
	sessionsTable  = "sessions"
	llmEventsTable = "llm_request_events"
)

// Tables returns the SQL tables built from the ent schema definitions.
func Tables() []*schema.Table {
	return []*schema.Table{
		tableFor(sessionsTable, entschema.Session{}),
		tableFor(llmEventsTable, entschema.LLMRequestEvent{}),
		sequenceSchema(),
	}
}

// migrate creates or alters the tables to match the schema definitions.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	return m.Create(ctx, Tables()...)
}

// tableFor translates an ent schema (fields, mixin fields and indexes) into
// a table with an auto-increment id primary key.
func tableFor(name string, s ent.Interface) *schema.Table {
	t := schema.NewTable(name)
	t.AddPrimary(&schema.Column{Name: "id", Type: field.TypeInt, Increment: true})

	var fields []ent.Field
	var indexes []ent.Index
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
		indexes = append(indexes, m.Indexes()...)
	}
	fields = append(fields, s.Fields()...)
	indexes = append(indexes, s.Indexes()...)

	for _, f := range fields {
		d := f.Descriptor()
		c := &schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Size:     int64(d.Size),
			Unique:   d.Unique,
			Nullable: d.Optional,
		}
		// Function defaults (time.Now) are applied by the repositories.
		if d.Default != nil && reflect.TypeOf(d.Default).Kind() != reflect.Func {
			c.Default = d.Default
		}
		t.AddColumn(c)
	}

	for _, idx := range indexes {
		d := idx.Descriptor()
		t.AddIndex(name+"_"+strings.Join(d.Fields, "_"), d.Unique, d.Fields)
	}
	return t
}
