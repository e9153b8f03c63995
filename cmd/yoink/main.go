// Command yoink is a cross-platform forensic artefact collector: it runs a
// catalogue of declarative rules against the local machine and archives
// whatever they find into a single ZIP file.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medioxor/yoink/internal/archiver"
	"github.com/medioxor/yoink/internal/collect"
	"github.com/medioxor/yoink/internal/hostid"
	"github.com/medioxor/yoink/internal/logging"
	"github.com/medioxor/yoink/internal/rawfs"
	"github.com/medioxor/yoink/internal/rules"
	"github.com/medioxor/yoink/internal/yerrors"
)

var log = logging.New("cmd")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "yoink",
		Short: "Collect forensic artefacts according to a rule catalogue",
	}
	root.AddCommand(newCollectCmd())
	return root
}

func newCollectCmd() *cobra.Command {
	var (
		list          bool
		ruleDir       string
		all           bool
		encryptionKey string
		output        string
	)

	cmd := &cobra.Command{
		Use:   "collect [rules...]",
		Short: "Run rules and archive the artefacts they find",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd.Context(), collectOptions{
				list:          list,
				ruleDir:       ruleDir,
				all:           all,
				encryptionKey: encryptionKey,
				output:        output,
				ruleNames:     args,
			})
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "list the effective rule catalogue and exit")
	cmd.Flags().StringVarP(&ruleDir, "rule-dir", "r", "", "directory of additional rule YAML documents to merge in")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "run every rule in the effective catalogue")
	cmd.Flags().StringVarP(&encryptionKey, "encryption-key", "e", "", "AES-256 passphrase for the output archive")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output archive path (default <host>_<unix millis>.zip)")

	return cmd
}

type collectOptions struct {
	list          bool
	ruleDir       string
	all           bool
	encryptionKey string
	output        string
	ruleNames     []string
}

func runCollect(ctx context.Context, opts collectOptions) error {
	collector, err := collect.New(opts.ruleDir)
	if err != nil {
		return fmt.Errorf("building rule catalogue: %w", err)
	}
	defer func() {
		if closeErr := collector.Close(); closeErr != nil {
			log.Warnf("cleaning up memory dumps: %v", closeErr)
		}
	}()

	if opts.list {
		printRules(collector.Rules())
		return nil
	}

	if !opts.all && len(opts.ruleNames) == 0 {
		return fmt.Errorf("no rules selected: pass --all or one or more rule names")
	}

	if opts.all {
		for _, collectErr := range collector.CollectAll(ctx) {
			fmt.Fprintln(os.Stderr, collectErr)
		}
	} else {
		for _, name := range opts.ruleNames {
			if err := collector.CollectByName(ctx, name); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
	}

	outputPath := opts.output
	if outputPath == "" {
		outputPath = defaultOutputPath()
	}
	if !strings.HasSuffix(strings.ToLower(outputPath), ".zip") {
		return fmt.Errorf("%w: %s", yerrors.ErrInvalidOutputPath, outputPath)
	}

	a := archiver.New(rawfs.New())
	if err := a.Compress(ctx, collector.Artefacts(), collector.MemoryDumps(), outputPath, opts.encryptionKey); err != nil {
		return fmt.Errorf("archiving collected artefacts: %w", err)
	}

	fmt.Println(outputPath)
	return nil
}

func defaultOutputPath() string {
	return fmt.Sprintf("%s_%d.zip", hostid.Hostname(), hostid.NowUnixMilli())
}

// printRules prints the effective catalogue: name, type, description, and
// the type-specific detail (paths/recursion depth or process names) an
// operator needs to pick a rule by name, supplementing the original tool's
// plainer --list view (see SPEC_FULL.md).
func printRules(all []rules.Rule) {
	for _, r := range all {
		head := r.Head()
		fmt.Printf("%-30s %-8s %s\n", head.Name, r.Kind(), head.Description)
		switch v := r.(type) {
		case rules.FileRule:
			fmt.Printf("%-30s   paths=%v recursion_depth=%d\n", "", v.Paths, v.RecursionDepth)
		case rules.MemoryRule:
			fmt.Printf("%-30s   process_names=%v pids=%v\n", "", v.ProcessNames, v.PIDs)
		}
	}
}
