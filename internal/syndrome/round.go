package syndrome

import (
	"context"

	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/block"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/circuit"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/ctxlog"
	"github.com/David-Shimkus/Entangled-Logical-Qubits/internal/stabilizer"
	"github.com/pkg/errors"
)

// Families lists the check families in the order a round processes them.
var Families = []stabilizer.Family{stabilizer.BitFlip, stabilizer.PhaseFlip}

// Round appends one full QEC cycle for blk: for every bit-flip group and
// then every phase-flip group, claim clean ancillas, extract, correct, and
// reset the ancillas back into the pool. Groups are checked before anything
// is appended.
func Round(ctx context.Context, bld *circuit.Builder, blk *block.Block, c Corrector) error {
	code := blk.Code()
	for _, g := range code.Groups() {
		if err := Validate(g); err != nil {
			return errors.Wrapf(err, "code %s", code.Name())
		}
	}
	if err := blk.BeginRound(); err != nil {
		return err
	}
	ctx, logger := ctxlog.With(ctx, "block", blk.Name(), "round", blk.Rounds()+1)

	data := blk.Data()
	for _, f := range Families {
		for i, g := range code.GroupsOf(f) {
			anc, err := blk.ClaimAncillas(g.Width())
			if err != nil {
				return err
			}
			if err := Extract(ctx, bld, g, data, anc); err != nil {
				return err
			}
			req := Request{Builder: bld, Block: blk, Group: g, Ancillas: anc}
			if err := c.Correct(ctx, req); err != nil {
				return errors.Wrapf(err, "block %s: %s group %d", blk.Name(), f, i)
			}
			if err := blk.ResetAncillas(bld, anc); err != nil {
				return err
			}
		}
	}
	logger.Debug("Completed syndrome round.", "corrector", c.Name())
	return blk.EndRound()
}
