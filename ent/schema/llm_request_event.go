package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LLMRequestEvent is one vendor call made by the advisor or the exercise
// generator. Retries produce one row per attempt.
type LLMRequestEvent struct {
	ent.Schema
}

func (LLMRequestEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{Stamped{}}
}

func (LLMRequestEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("request_id").
			Default("").
			Comment("X-Request-ID of the HTTP request that triggered the call"),
		field.String("provider"),
		field.String("model").
			Comment("Model ID reported by the vendor, not the configured alias"),
		field.String("purpose"),
		field.Int("input_tokens").Default(0),
		field.Int("output_tokens").Default(0),
		field.Int64("latency_ms").Default(0),
		field.String("stop_reason").Default(""),
		field.Bool("success"),
		field.String("error_message").Default(""),
		field.Text("request_body").
			Default("").
			Comment("Transcript: system prompt, messages, schema"),
		field.Text("response_body").Default(""),
	}
}

func (LLMRequestEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("purpose"),
		index.Fields("request_id"),
		index.Fields("provider", "model"),
	}
}
