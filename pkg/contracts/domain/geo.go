package domain

// Geography levels a SignalTable can be keyed by. The first four come
// straight from workbook sheets; nation is derived from state.
const (
	LevelNation = "nation"
	LevelHHS    = "hhs"
	LevelState  = "state"
	LevelMSA    = "msa"
	LevelCounty = "county"
)

// SheetLevels lists the levels extracted directly from workbook sheets.
func SheetLevels() []string {
	return []string{LevelHHS, LevelState, LevelMSA, LevelCounty}
}
