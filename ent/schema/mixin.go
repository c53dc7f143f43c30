package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"entgo.io/ent/schema/mixin"
)

// Stamped marks an append-only row with its place in the global sequence
// and the UTC time it was written.
type Stamped struct {
	mixin.Schema
}

func (Stamped) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("sequence").
			Unique().
			Immutable().
			Comment("Position in the global_sequence counter"),
		field.Time("timestamp").
			Default(time.Now).
			Immutable(),
	}
}

func (Stamped) Indexes() []ent.Index {
	return []ent.Index{index.Fields("timestamp")}
}

// Touched tracks the last write of a mutable row.
type Touched struct {
	mixin.Schema
}

func (Touched) Fields() []ent.Field {
	return []ent.Field{
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now).
			Comment("UTC time of the last write"),
	}
}

func (Touched) Indexes() []ent.Index {
	return []ent.Index{index.Fields("updated_at")}
}
