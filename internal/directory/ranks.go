package directory

import "strings"

// RankHierarchy lists the twelve patrol ranks, highest first.
var RankHierarchy = []string{
	"Marshall",
	"Vice-Marshall",
	"Coronel",
	"Superintendente",
	"Major",
	"Sheriff",
	"Capitão",
	"Tenente",
	"Sargento",
	"Cabo",
	"Soldado",
	"Recruta",
}

// DefaultAuthorizedRanks is the default weapon-authorized set: the top
// seven ranks of the hierarchy.
var DefaultAuthorizedRanks = RankHierarchy[:7]

// ExtractRank returns the highest hierarchy rank whose name appears
// (case-insensitively) in any of the member's role names, or "" if none.
func ExtractRank(roleNames []string) string {
	for _, rank := range RankHierarchy {
		for _, role := range roleNames {
			if strings.Contains(strings.ToLower(role), strings.ToLower(rank)) {
				return rank
			}
		}
	}
	return ""
}
