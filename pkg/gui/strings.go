package gui

const (
	appTooltip     = "battmoji - battery status in the menu bar"
	quitTooltip    = `Quit the battmoji menu bar app. The daemon keeps running, so "battmoji status" and "battmoji animate" still work.`
	animateTooltip = "Let the current emoji fall across the screen"
	emojiTooltip   = "Use this glyph in the menu bar and for the falling animation"

	notRunningTitle  = "🔋 ?"
	notRunningHeader = "battmoji daemon is not running"
)
