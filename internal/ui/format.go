package ui

import (
	"fmt"
	"strings"

	"github.com/devblac/semaphore-cli/internal/group"
)

// Group prints id, admin and merkle tree parameters.
func (p *Printer) Group(g *group.Group) {
	admin := g.Admin
	if admin == "" {
		admin = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, " %s: %s\n", p.Bold("Id"), g.ID)
	fmt.Fprintf(&b, " %s: %s\n", p.Bold("Admin"), admin)
	fmt.Fprintf(&b, " %s:\n", p.Bold("Merkle tree"))
	fmt.Fprintf(&b, "   Root: %s\n", g.MerkleTree.Root)
	fmt.Fprintf(&b, "   Depth: %d\n", g.MerkleTree.Depth)
	fmt.Fprintf(&b, "   Zero value: %s\n", g.MerkleTree.ZeroValue)
	fmt.Fprintf(&b, "   Number of leaves: %d", g.MerkleTree.NumberOfLeaves)

	fmt.Fprintf(p.out, "\n%s\n\n", b.String())
}

// Members prints the ordered member list, or an info line when there is none.
func (p *Printer) Members(members []string) {
	if len(members) == 0 {
		p.Info("there are no members in this group")
		return
	}
	lines := make([]string, len(members))
	for i, m := range members {
		lines[i] = fmt.Sprintf("   %d. %s", i, m)
	}
	fmt.Fprintf(p.out, "\n%s: \n%s\n\n", p.Bold("Members"), strings.Join(lines, "\n"))
}

// Proofs prints verified proofs in order, or an info line when there is none.
func (p *Printer) Proofs(proofs []group.VerifiedProof) {
	if len(proofs) == 0 {
		p.Info("there are no proofs in this group")
		return
	}
	items := make([]string, len(proofs))
	for i, pr := range proofs {
		items[i] = fmt.Sprintf("  - signal: %s\n    merkleTreeRoot: %s\n    externalNullifier: %s\n    nullifierHash: %s",
			pr.Signal, pr.MerkleTreeRoot, pr.ExternalNullifier, pr.NullifierHash)
	}
	fmt.Fprintf(p.out, "\n%s: \n%s\n\n", p.Bold("Proofs"), strings.Join(items, "\n"))
}

// GroupIDs prints a bullet list of ids.
func (p *Printer) GroupIDs(ids []string) {
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = " - " + id
	}
	fmt.Fprintf(p.out, "\n%s\n\n", strings.Join(lines, "\n"))
}

// ProjectReady prints the follow-up instructions after scaffolding.
func (p *Printer) ProjectReady(dir string, scripts []string) {
	p.Success("Your project is ready!")
	fmt.Fprintf(p.out, " Please, install your dependencies by running:\n\n")
	fmt.Fprintf(p.out, "   %s %s\n", p.Command("cd"), dir)
	fmt.Fprintf(p.out, "   %s\n\n", p.Command("npm i"))

	if len(scripts) == 0 {
		return
	}
	fmt.Fprintf(p.out, " Available scripts:\n\n")
	for _, s := range scripts {
		fmt.Fprintf(p.out, "   %s\n", p.Command("npm run "+s))
	}
	fmt.Fprintf(p.out, "\n See the README.md file to understand how to use them!\n\n")
}
