// Package progress renders per-file feedback while a vault scan runs.
package progress

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter tracks a vault scan. Interactive terminals get a live bar; CI
// environments degrade to one log line per file.
type Reporter struct {
	plain bool
	total int
	bar   *progressbar.ProgressBar
}

func New() *Reporter {
	return &Reporter{
		plain: os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "",
	}
}

// Step records one scanned file. The bar is sized on the first call because
// the walk total is only known once traversal begins reporting.
func (r *Reporter) Step(done, total int, name string) {
	if r.plain {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, total, name)
		return
	}
	if r.bar == nil {
		r.total = total
		r.bar = progressbar.NewOptions(total,
			progressbar.OptionSetDescription("Scanning vault"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	r.bar.Describe(name)
	_ = r.bar.Set(done)
}

// Done finishes the bar, or prints a closing line in plain mode.
func (r *Reporter) Done() {
	if r.plain {
		fmt.Fprintln(os.Stderr, "Scan complete")
		return
	}
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}
