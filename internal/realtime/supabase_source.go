package realtime

import (
	"context"

	"Sparkle/internal/supabase"
)

// SupabaseSource adapts a Supabase Realtime channel subscription
type SupabaseSource struct {
	channel *supabase.Realtime
}

// NewSupabaseSource wraps a channel created with supabase.Client.Realtime
func NewSupabaseSource(channel *supabase.Realtime) *SupabaseSource {
	return &SupabaseSource{channel: channel}
}

func (s *SupabaseSource) Run(ctx context.Context, emit func(Event)) error {
	return s.channel.Run(ctx, func(change supabase.ChangeEvent) {
		emit(Event{
			Type:     EventType(change.Type),
			Table:    change.Table,
			RecordID: change.RecordID(),
		})
	})
}
