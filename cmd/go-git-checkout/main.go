// Command go-git-checkout drives the checkout package from the command
// line: point it at a working tree and a ref, and it reconciles the
// index and files the same way the library's Checkout does.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/go-git/go-git-checkout/checkout"
	"github.com/go-git/go-git-checkout/storer"
)

func main() {
	var (
		dir        = flag.String("dir", ".", "working tree root")
		gitdir     = flag.String("gitdir", "", "git directory (defaults to <dir>/.git)")
		ref        = flag.String("ref", "", "branch, tag or commit to check out (required)")
		remote     = flag.String("remote", "origin", "remote to fall back to for tracking-branch bootstrap")
		pattern    = flag.String("pattern", "", "glob restricting which leaf paths are touched")
		filepaths  = flag.String("filepaths", "", "comma-separated list of paths to restrict the checkout to")
		noCheckout = flag.Bool("no-checkout", false, "update HEAD only, skip the index and working tree")
		dryRun     = flag.Bool("dry-run", false, "print the plan without applying it")
	)
	flag.Parse()

	if *ref == "" {
		fmt.Fprintln(os.Stderr, "go-git-checkout: -ref is required")
		flag.Usage()
		os.Exit(2)
	}

	if *gitdir == "" {
		*gitdir = filepath.Join(*dir, ".git")
	}

	if err := run(*dir, *gitdir, *ref, *remote, *pattern, *filepaths, *noCheckout, *dryRun); err != nil {
		log.Fatalf("go-git-checkout: %v", err)
	}
}

func run(dir, gitdir, ref, remote, pattern, filepathsFlag string, noCheckout, dryRun bool) error {
	wfs := osfs.New(dir)
	gfs := osfs.New(gitdir)

	objects := storer.NewLooseObjectStore(gfs)
	dotgit := storer.NewDotGit(gfs)
	idx := storer.NewLockedIndexStore(gfs)

	var filepathsList []string
	if filepathsFlag != "" {
		filepathsList = strings.Split(filepathsFlag, ",")
	}

	opts := &checkout.Options{
		Ref:        ref,
		Remote:     remote,
		Pattern:    pattern,
		Filepaths:  filepathsList,
		NoCheckout: noCheckout,
		DryRun:     dryRun,
	}

	progress := func(e storer.ProgressEvent) {
		if e.Total > 0 {
			fmt.Fprintf(os.Stderr, "%s: %d/%d\n", e.Phase, e.Loaded, e.Total)
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %d\n", e.Phase, e.Loaded)
	}

	result, err := checkout.Checkout(opts, objects, dotgit, idx, dotgit, wfs, progress)
	if err != nil {
		return err
	}

	for _, op := range result.Plan {
		fmt.Println(op.String())
	}
	for _, d := range result.Diagnostics {
		fmt.Fprintln(os.Stderr, "diagnostic:", d)
	}
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	return nil
}
