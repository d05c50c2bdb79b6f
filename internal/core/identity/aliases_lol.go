package identity

// CanonicalLeagues are the league codes used by the historical archive.
var CanonicalLeagues = []string{
	"LCK", "LCKC", "LPL", "LEC", "LCS", "CD", "CBLOL", "LFL", "LFL2",
	"VCS", "PCS", "TCL", "LJL", "LCP", "LTA N", "LTA S", "LLA", "NACL",
	"EM", "MSI", "WLDs", "PRM", "AL",
}

// leagueAliases maps bookmaker league spellings to archive league codes.
var leagueAliases = map[string]string{
	"LCK Cup":                 "LCKC",
	"LCK Challengers":         "LCKC",
	"LCK Challengers League":  "LCKC",
	"LCK CL":                  "LCKC",
	"LCK Academy":             "LCKC",
	"Korea - LCK":             "LCK",
	"China - LPL":             "LPL",
	"LPL China":               "LPL",
	"LEC Winter":              "LEC",
	"LEC Spring":              "LEC",
	"LEC Summer":              "LEC",
	"Europe - LEC":            "LEC",
	"LCS NA":                  "LCS",
	"LCS Lock In":             "LCS",
	"North America - LCS":     "LCS",
	"LTA North":               "LTA N",
	"LTA South":               "LTA S",
	"CBLOL Academy":           "CD",
	"Circuito Desafiante":     "CD",
	"Brazil - CBLOL":          "CBLOL",
	"La Ligue Francaise":      "LFL",
	"LFL Division 2":          "LFL2",
	"Vietnam - VCS":           "VCS",
	"Turkey - TCL":            "TCL",
	"Japan - LJL":             "LJL",
	"EMEA Masters":            "EM",
	"European Masters":        "EM",
	"Prime League":            "PRM",
	"Arabian League":          "AL",
	"Mid-Season Invitational": "MSI",
	"World Championship":      "WLDs",
	"Worlds":                  "WLDs",
}

// teamAliases covers roster renames and sponsor names the suffix stripping
// in Fold cannot reach.
var teamAliases = map[string]string{
	"SK Telecom T1":       "T1",
	"Hanwha Life":         "Hanwha Life Esports",
	"HLE":                 "Hanwha Life Esports",
	"Gen G":               "Gen.G",
	"GenG":                "Gen.G",
	"Dplus KIA":           "Dplus KIA",
	"DWG KIA":             "Dplus KIA",
	"Damwon Gaming":       "Dplus KIA",
	"KT":                  "KT Rolster",
	"Nongshim RedForce":   "Nongshim RedForce",
	"NS RedForce":         "Nongshim RedForce",
	"OKSavingsBank BRION": "OKSavingsBank BRION",
	"BRION":               "OKSavingsBank BRION",
	"DRX":                 "DRX",
	"FearX":               "BNK FEARX",
	"BNK FearX":           "BNK FEARX",
	"Top Esports":         "Top Esports",
	"TES":                 "Top Esports",
	"JDG":                 "JD Gaming",
	"BLG":                 "Bilibili Gaming",
	"Bilibili":            "Bilibili Gaming",
	"G2":                  "G2 Esports",
	"FNC":                 "Fnatic",
	"MAD Lions KOI":       "Movistar KOI",
	"MKOI":                "Movistar KOI",
	"C9":                  "Cloud9",
	"TL":                  "Team Liquid",
	"Liquid":              "Team Liquid",
	"FLY":                 "FlyQuest",
	"LOUD":                "LOUD",
	"paiN":                "paiN Gaming",
}

// BuiltinAliases returns the seed alias set shipped with the binary.
func BuiltinAliases() []Alias {
	out := make([]Alias, 0, len(leagueAliases)+len(teamAliases))
	for raw, canon := range leagueAliases {
		out = append(out, Alias{Source: SourceBuiltin, Kind: KindLeague, Raw: raw, Canonical: canon, Confidence: 1})
	}
	for raw, canon := range teamAliases {
		out = append(out, Alias{Source: SourceBuiltin, Kind: KindTeam, Raw: raw, Canonical: canon, Confidence: 1})
	}
	return out
}
