package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/pipeline"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/sim"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

type palette struct {
	title, good, warn *color.Color
}

func (a *App) palette() palette {
	p := palette{
		title: color.New(color.FgCyan, color.Bold),
		good:  color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
	}
	if !a.cfg.Color {
		p.title.DisableColor()
		p.good.DisableColor()
		p.warn.DisableColor()
	}
	return p
}

// writeReport prints the circuit summary and, when executed, the counts.
// Carrier bits are the lowest classical bits, so the logical outcome of a
// key is its last len(Blocks) characters.
func (a *App) writeReport(w io.Writer, res *pipeline.Result, counts sim.Counts) error {
	p := a.palette()
	c := res.Circuit

	p.title.Fprintf(w, "%s, %d block(s), corrector %s\n", res.Code.Name(), len(res.Blocks), res.Corrector)
	fmt.Fprintf(w, "qubits %d  clbits %d  ops %d  depth %d  widest control set %d\n",
		c.Qubits(), c.Clbits(), c.Len(), c.Depth(), c.MaxControls())
	for _, b := range res.Blocks {
		fmt.Fprintf(w, "  block %s  input %-5s  data %v  ancillas %v  carrier q%d -> c%d\n",
			b.Name, b.Input, b.Data, b.Ancillas, b.Carrier, b.Clbit)
	}
	if len(res.Faults) > 0 {
		faults := make([]string, len(res.Faults))
		for i, f := range res.Faults {
			faults[i] = f.String()
		}
		p.warn.Fprintf(w, "faults: %s\n", strings.Join(faults, " "))
	}
	if counts == nil {
		return nil
	}

	logical := make(sim.Counts)
	n := len(res.Blocks)
	for k, v := range counts {
		logical[k[len(k)-n:]] += v
	}
	total := counts.Total()

	p.title.Fprintln(w, "logical outcomes")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Outcome", "Count", "Probability"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, k := range logical.Keys() {
		table.Append([]string{k, strconv.Itoa(logical[k]), strconv.FormatFloat(float64(logical[k])/float64(total), 'f', 4, 64)})
	}
	table.Render()
	p.good.Fprintf(w, "%d shots, %d distinct register values\n", total, len(counts))
	return nil
}

// writeCodes lists every code the factory resolves.
func (a *App) writeCodes(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Code", "Qubits", "Bit-flip checks", "Phase-flip checks", "Ancillas", "Max controls", "Transversal"})
	for _, name := range a.factory.Names() {
		code, err := a.factory.Lookup(name)
		if err != nil {
			return err
		}
		table.Append([]string{
			code.Name(),
			strconv.Itoa(code.Len()),
			strconv.Itoa(len(code.Rows(stabilizer.BitFlip))),
			strconv.Itoa(len(code.Rows(stabilizer.PhaseFlip))),
			strconv.Itoa(code.AncillaWidth()),
			strconv.Itoa(code.MaxControls()),
			strconv.FormatBool(code.Transversal()),
		})
	}
	table.Render()
	return nil
}
