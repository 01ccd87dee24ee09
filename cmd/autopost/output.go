package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	json "github.com/json-iterator/go"
	"github.com/nhankey2000/auto-post/internal/service"
	"github.com/nhankey2000/auto-post/internal/util"
)

func printSuccess(msg string, args ...interface{}) {
	color.New(color.FgGreen).Printf(msg+"\n", args...)
}

func printError(msg string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
}

func printInfo(msg string, args ...interface{}) {
	color.New(color.FgCyan).Printf(msg+"\n", args...)
}

func printWarning(msg string, args ...interface{}) {
	color.New(color.FgYellow).Printf("Warning: "+msg+"\n", args...)
}

// printResult writes data as indented JSON in json mode, otherwise calls text.
func printResult(data interface{}, text func()) error {
	if output == "json" {
		encoder := json.NewEncoder(color.Output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}
	text()
	return nil
}

func printTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(color.Output, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		bold.Fprint(w, h)
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

func printBulk(action string, result service.BulkResult) error {
	return printResult(result, func() {
		printSuccess("✓ %s %d", action, result.Succeeded)
		for _, f := range result.Failures {
			printWarning("#%d: %s", f.ID, f.Error)
		}
	})
}

// parseID reads a positive numeric id argument
func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

// parseIDs accepts ids as separate arguments or comma separated lists
func parseIDs(args []string) ([]uint, error) {
	var ids []uint
	for _, arg := range args {
		parsed, err := util.ParseIDList(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, parsed...)
	}
	return ids, nil
}
