package likes

import "time"

// Like is a row in the likes table. The backend keeps (post_id, user_id) unique;
// the presence of a row is the like state.
type Like struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// State is the like information a post card displays.
type State struct {
	PostID string `json:"post_id"`
	Liked  bool   `json:"liked"`
	Count  int    `json:"count"`
}

// toggled returns the state after a successful toggle, with the count
// re-derived locally and floored at zero.
func (s State) toggled() State {
	next := s
	next.Liked = !s.Liked
	if s.Liked {
		next.Count = max(0, s.Count-1)
	} else {
		next.Count = s.Count + 1
	}
	return next
}
