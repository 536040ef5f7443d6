package domain

import (
	"sort"

	"github.com/google/uuid"
)

// Intn returns a uniform int in [0, n). math/rand.Intn satisfies it;
// tests inject a deterministic one.
type Intn func(n int) int

// TallyVotes counts votes per choice.
func TallyVotes(votes []Vote) map[uuid.UUID]int {
	tally := make(map[uuid.UUID]int, len(votes))
	for _, v := range votes {
		tally[v.ChoiceID]++
	}
	return tally
}

// LeadingChoices returns every choice holding the maximum vote count,
// sorted by id, together with that count.
func LeadingChoices(tally map[uuid.UUID]int) ([]uuid.UUID, int) {
	max := 0
	for _, count := range tally {
		if count > max {
			max = count
		}
	}

	var leading []uuid.UUID
	for choiceID, count := range tally {
		if count == max {
			leading = append(leading, choiceID)
		}
	}
	sort.Slice(leading, func(i, j int) bool {
		return leading[i].String() < leading[j].String()
	})
	return leading, max
}

// Winner picks the winning choice. Ties between leading choices are
// broken uniformly at random via intn.
func Winner(votes []Vote, intn Intn) (uuid.UUID, int, error) {
	if len(votes) == 0 {
		return uuid.Nil, 0, ErrNoVotes
	}
	leading, count := LeadingChoices(TallyVotes(votes))
	return leading[intn(len(leading))], count, nil
}
