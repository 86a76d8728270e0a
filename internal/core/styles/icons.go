package styles

// Status glyphs shared by doctor and schedule output.
var (
	IconPass    = "✔"
	IconWarn    = "●"
	IconFail    = "✘"
	IconCurrent = "▶"
)
