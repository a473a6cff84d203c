package cli

import (
	"github.com/pterm/pterm"
)

// progressBar starts a pterm bar on the first update, once the total is
// known.
type progressBar struct {
	title string
	bar   *pterm.ProgressbarPrinter
}

func (p *progressBar) update(done, total int) {
	if p.bar == nil {
		bar, err := pterm.DefaultProgressbar.WithTotal(total).WithTitle(p.title).Start()
		if err != nil {
			return
		}
		p.bar = bar
	}
	p.bar.Add(done - p.bar.Current)
}

func (p *progressBar) stop() {
	if p.bar != nil {
		p.bar.Stop()
	}
}
