package app

import (
	"sort"

	"quizdeck/internal/domain"
)

// sortedPlayers orders a roster for ranking: score descending, then
// cumulative answer time ascending (faster answering wins ties), then name
// so exact ties still order deterministically. Rank is positional; players
// with identical stats do not share a rank.
func sortedPlayers(players map[string]*domain.Player) []*domain.Player {
	ordered := make([]*domain.Player, 0, len(players))
	for _, player := range players {
		ordered = append(ordered, player)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		if ordered[i].TotalTime != ordered[j].TotalTime {
			return ordered[i].TotalTime < ordered[j].TotalTime
		}
		return ordered[i].Name < ordered[j].Name
	})
	return ordered
}

func rankPlayers(players map[string]*domain.Player) []domain.LeaderboardRow {
	ordered := sortedPlayers(players)
	rows := make([]domain.LeaderboardRow, len(ordered))
	for i, player := range ordered {
		rows[i] = domain.LeaderboardRow{
			Rank:           i + 1,
			Name:           player.Name,
			Score:          player.Score,
			CorrectAnswers: player.CorrectAnswers,
		}
	}
	return rows
}

func rankFinal(players map[string]*domain.Player, totalQuestions int) []domain.FinalLeaderboardRow {
	ordered := sortedPlayers(players)
	rows := make([]domain.FinalLeaderboardRow, len(ordered))
	for i, player := range ordered {
		rows[i] = domain.FinalLeaderboardRow{
			Rank:           i + 1,
			Name:           player.Name,
			Score:          player.Score,
			CorrectAnswers: player.CorrectAnswers,
			TotalQuestions: totalQuestions,
		}
	}
	return rows
}

// rosterLocked snapshots the roster in join order for membership broadcasts.
func rosterLocked(players map[string]*domain.Player) []domain.Player {
	roster := make([]domain.Player, 0, len(players))
	for _, player := range players {
		roster = append(roster, *player)
	}
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].JoinedAt != roster[j].JoinedAt {
			return roster[i].JoinedAt < roster[j].JoinedAt
		}
		return roster[i].ID < roster[j].ID
	})
	return roster
}
