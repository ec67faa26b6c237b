package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/agentx-labs/brat/internal/sweep"
)

func printOutcome(w io.Writer, o sweep.Outcome) {
	name := o.Repository
	if o.PackageID != "" {
		name += " (" + o.PackageID + ")"
	}
	tag := ""
	if o.Tag != "" {
		tag = " " + o.Tag
	}

	switch o.Status {
	case sweep.StatusInstalled:
		fmt.Fprintf(w, "Installed %s%s\n", name, tag)
	case sweep.StatusUnchanged:
		fmt.Fprintf(w, "Up to date %s%s\n", name, tag)
	case sweep.StatusSkipped:
		fmt.Fprintf(w, "Skipped %s\n", name)
	case sweep.StatusFailed:
		fmt.Fprintf(w, "Failed %s while %s [%s]: %v\n", name, o.Stage, o.Reason(), o.Err)
	}
}

func printSummary(w io.Writer, r sweep.Report) {
	for _, o := range r.Outcomes {
		if o.Status != sweep.StatusUnchanged {
			printOutcome(w, o)
		}
	}
	fmt.Fprintf(w, "%d installed, %d up to date, %d failed in %s\n",
		r.Count(sweep.StatusInstalled), r.Count(sweep.StatusUnchanged),
		r.Count(sweep.StatusFailed), r.Duration.Round(10*time.Millisecond))
}
