package services

import (
	"github.com/gvlarp/renfield/pkg/internal/database"
	"github.com/gvlarp/renfield/pkg/internal/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type OptionCount struct {
	Option string `json:"option"`
	Count  int64  `json:"count"`
	Winner bool   `json:"winner"`
}

type TallyResult struct {
	Vote       models.Vote      `json:"vote"`
	Options    []OptionCount    `json:"options"`
	PerOption  map[string]int64 `json:"per_option"`
	TotalVotes int64            `json:"total_votes"`
	Winners    []string         `json:"winners"`
}

// NoVotes reports the degenerate tally where every option sits at zero and
// is therefore tied for first.
func (v TallyResult) NoVotes() bool {
	return v.TotalVotes == 0
}

type choiceCount struct {
	Choice string
	Count  int64
}

func tallyWith(tx *gorm.DB, vote models.Vote) (TallyResult, error) {
	var rows []choiceCount
	if err := tx.Model(&models.Ballot{}).
		Select("choice, COUNT(*) AS count").
		Where("vote_id = ?", vote.ID).
		Group("choice").
		Scan(&rows).Error; err != nil {
		return TallyResult{}, database.NewQueryError(err)
	}

	counts := lo.SliceToMap(rows, func(item choiceCount) (string, int64) {
		return item.Choice, item.Count
	})
	return ComputeTally(vote, counts), nil
}

// ComputeTally builds the per option counts in stored option order. Every
// declared option starts at zero; choices that are not options are ignored.
// Winners are all options sharing the highest count.
func ComputeTally(vote models.Vote, counts map[string]int64) TallyResult {
	result := TallyResult{
		Vote:      vote,
		PerOption: make(map[string]int64, len(vote.Options)),
	}

	for _, option := range vote.Options {
		if _, ok := result.PerOption[option]; ok {
			continue
		}
		result.PerOption[option] = counts[option]
		result.TotalVotes += counts[option]
	}

	highest := lo.Max(lo.Values(result.PerOption))
	result.Options = lo.Map(lo.Uniq([]string(vote.Options)), func(item string, index int) OptionCount {
		return OptionCount{
			Option: item,
			Count:  result.PerOption[item],
			Winner: result.PerOption[item] == highest,
		}
	})
	result.Winners = lo.FilterMap(result.Options, func(item OptionCount, index int) (string, bool) {
		return item.Option, item.Winner
	})

	return result
}
