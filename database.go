package pdpmake

import (
	"fmt"
	"io"
	"sort"

	"github.com/fuhsnn/pdpmake/internal/diag"
)

// PrintDatabase writes every macro and rule in a machine-parsable form,
// implementing the -p option (spec §6). Grounded on pdpmake.c's
// print_details/print_name/print_prerequisites/print_commands; output is
// sorted by name since the original's hash-bucket iteration order isn't
// reproduced here (see DESIGN.md "Intern tables").
func (mk *Maker) PrintDatabase(w io.Writer) {
	names := mk.Macros.names()
	sort.Strings(names)
	for _, name := range names {
		m := mk.Macros.Get(name)
		fmt.Fprintf(w, "%s = %s\n", m.Name, m.Value)
	}
	fmt.Fprintln(w)

	targets := mk.Names.all()
	sort.Slice(targets, func(i, j int) bool { return targets[i].Name < targets[j].Name })

	for _, n := range targets {
		if len(n.Rules) == 0 {
			continue
		}
		if !n.hasFlag(FlagDouble) {
			mk.printTargetName(w, n)
			for _, r := range n.Rules {
				printPrereqs(w, r)
			}
			fmt.Fprintln(w)
			for _, r := range n.Rules {
				printCommands(w, r)
			}
			fmt.Fprintln(w)
		} else {
			for _, r := range n.Rules {
				mk.printTargetName(w, n)
				printPrereqs(w, r)
				fmt.Fprintln(w)
				printCommands(w, r)
				fmt.Fprintln(w)
			}
		}
	}

	if diag.Enabled() {
		diag.Stat("names", int64(len(targets)))
		diag.Stat("macros", int64(len(names)))
		used, maxChain := mk.Names.bucketLoad()
		diag.Stat("buckets_used", int64(used))
		diag.Stat("bucket_max_chain", int64(maxChain))
	}
}

func (mk *Maker) printTargetName(w io.Writer, n *Name) {
	if mk.FirstTarget == n {
		fmt.Fprintln(w, "# default target")
	}
	fmt.Fprintf(w, "%s:", n.Name)
	if n.hasFlag(FlagDouble) {
		fmt.Fprint(w, ":")
	}
}

func printPrereqs(w io.Writer, r *Rule) {
	for _, d := range r.Prereqs {
		fmt.Fprintf(w, " %s", d.Name.Name)
	}
}

func printCommands(w io.Writer, r *Rule) {
	for _, c := range r.Cmds {
		fmt.Fprintf(w, "\t%s\n", c.Text)
	}
}
