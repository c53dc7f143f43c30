package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// Session holds the latest warm-up state for one learner. JSON columns are
// stored as text so the row can be read without the Go types.
type Session struct {
	ent.Schema
}

func (Session) Mixin() []ent.Mixin {
	return []ent.Mixin{Touched{}}
}

func (Session) Fields() []ent.Field {
	return []ent.Field{
		field.String("user_id").
			Unique().
			NotEmpty().
			Comment("Learner identifier, client supplied or generated UUID"),
		field.Text("profile").
			Default("{}").
			Comment("Language profile JSON"),
		field.Text("signals").
			Default("{}").
			Comment("Computed signal summary JSON"),
		field.Text("answers").
			Default("[]").
			Comment("Raw warm-up answers JSON"),
		field.Text("ctm").
			Optional().
			Comment("Last curriculum transfer map JSON, empty until analyzed"),
	}
}
