package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/CTAG07/Darlingtonia/pkg/bayes"
	"github.com/CTAG07/Darlingtonia/pkg/simulate"
)

// writeReport prints a comparison of the ground-truth parameters against the
// prior and posterior means, followed by the model evidence. It consumes only
// read-only accessors of its inputs.
func writeReport(w io.Writer, sampler *simulate.Sampler, priors *bayes.Priors, post *bayes.Posterior) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "parameter\ttruth\tprior mean\tposterior mean")
	writeRow(tw, "initial", sampler.Initial(), priors.Initial().Mean(), post.InitialMean())
	for k := 0; k < post.States(); k++ {
		label := fmt.Sprintf("row %d", k)
		writeRow(tw, label, sampler.Transition(k), priors.Row(k).Mean(), post.RowMean(k))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nlog evidence: %.6f (evidence %.6g)\n", post.LogEvidence(), post.Evidence())
	return err
}

// writeRow formats one parameter vector as three probability columns.
func writeRow(w io.Writer, label string, truth, prior, posterior []float64) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", label, formatProbs(truth), formatProbs(prior), formatProbs(posterior))
}

func formatProbs(probs []float64) string {
	out := "["
	for i, p := range probs {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%.4f", p)
	}
	return out + "]"
}
