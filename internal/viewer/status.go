package viewer

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"
)

// StatusLine formats the bottom status row:
//
//	<path> [doc N] [docs S-L/T+ (END)] [loaded P% M/T MiB] [extra]
//
// where "+" marks a cache that is still loading, "(END)" appears once
// the cache is complete and the last document is on screen, and extra
// carries transient messages.
func StatusLine(path string, v *Viewport, extra string, width int) string {
	c := v.Cache()

	plus := "+"
	if c.IsComplete() {
		plus = ""
	}
	end := ""
	if c.IsComplete() && v.LastDisplayedDoc() == c.NumDocs()-1 {
		end = " (END)"
	}

	s := fmt.Sprintf("%s [doc %d] [docs %d-%d/%d%s%s] [loaded %.0f%% %.0f/%.0f MiB]",
		path,
		v.CursorDoc(),
		v.StartDoc(), v.LastDisplayedDoc(), c.NumDocs(), plus, end,
		c.PercOfFileSeen(), float64(c.SizeOfFileSeen())/1048576.0, float64(c.SizeOfFile())/1048576.0)
	if extra != "" {
		s += " [" + extra + "]"
	}

	if width > 0 && ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	return s
}
