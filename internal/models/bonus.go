package models

import "time"

// BonusIDs is the fixed set of promotional bonuses. The frontend resolves
// the human-readable titles from these identifiers.
var BonusIDs = []string{"lab10", "uziFree", "doc50", "checkup10"}

func IsBonusID(id string) bool {
	for _, b := range BonusIDs {
		if b == id {
			return true
		}
	}
	return false
}

type BonusAssignment struct {
	ClientKey  string    `bson:"_id,omitempty" json:"-"`
	BonusID    string    `bson:"bonus_id" json:"bonusId"`
	ClaimedAt  time.Time `bson:"claimed_at" json:"claimedAt"`
	ClientMeta string    `bson:"client_meta" json:"ua"`
}
