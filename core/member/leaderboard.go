package member

type LeaderboardEntry struct {
	Position  int    `json:"position"` // 1-based; ties share a position
	MemberID  string `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Points    int    `json:"points"`
	Tier      Tier   `json:"tier"`
}

// rankMembers assigns competition ranks (1, 2, 2, 4) to members already sorted by points desc.
// offset is the index of members[0] in the full ordering and firstPos its position,
// which is lower than offset+1 when the page starts in the middle of a tie.
func rankMembers(members []Member, offset, firstPos int) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(members))
	for i, m := range members {
		pos := offset + i + 1
		if i == 0 {
			pos = firstPos
		} else if m.Points == members[i-1].Points {
			pos = entries[i-1].Position
		}
		entries = append(entries, LeaderboardEntry{
			Position:  pos,
			MemberID:  m.ID,
			Name:      m.Name(),
			AvatarURL: m.AvatarURL,
			Points:    m.Points,
			Tier:      TierFor(m.Points),
		})
	}
	return entries
}
