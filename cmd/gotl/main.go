// Command gotl is the CLI front end for this module's template
// engine: render a template against a JSON context, dump its parsed
// AST, or check a directory of templates for parse errors. Grounded on
// cmd/yparse/yparse.go's _main(args) error shape, fatih/color +
// go-colorable pairing, and josharian-gotmplfmt/cmd/gohtmlfmt's plain
// argument handling (scanned by hand, without the flag package).
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"

	"github.com/mna/gotl/bundle"
	"github.com/mna/gotl/exec"
	"github.com/mna/gotl/funcs"
	"github.com/mna/gotl/internal/diag"
	"github.com/mna/gotl/parse"
	"github.com/mna/gotl/value"
)

func _main(args []string) error {
	if len(args) < 2 {
		return errors.New("gotl: usage: gotl render|dump|check ...")
	}
	switch args[1] {
	case "render":
		return renderCmd(args[2:])
	case "dump":
		return dumpCmd(args[2:])
	case "check":
		return checkCmd(args[2:])
	default:
		return fmt.Errorf("gotl: unknown subcommand %q", args[1])
	}
}

func renderCmd(args []string) error {
	if len(args) < 1 {
		return errors.New("gotl render: usage: gotl render <template-file> [-json <context-file>]")
	}
	templateFile := args[0]
	jsonFile := ""
	for i := 1; i < len(args); i++ {
		if args[i] == "-json" && i+1 < len(args) {
			jsonFile = args[i+1]
			i++
		}
	}

	src, err := ioutil.ReadFile(templateFile)
	if err != nil {
		return err
	}
	forest, err := parse.Parse(templateFile, string(src))
	if err != nil {
		return err
	}

	dot := value.Null
	if jsonFile != "" {
		raw, err := ioutil.ReadFile(jsonFile)
		if err != nil {
			return err
		}
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return fmt.Errorf("gotl render: decoding %s: %w", jsonFile, err)
		}
		dot = fromInterface(decoded)
	}

	st := exec.New(forest, funcs.NewRegistry())
	return st.Execute(os.Stdout, dot)
}

func dumpCmd(args []string) error {
	if len(args) < 1 {
		return errors.New("gotl dump: usage: gotl dump <template-file>")
	}
	src, err := ioutil.ReadFile(args[0])
	if err != nil {
		return err
	}
	forest, err := parse.Parse(args[0], string(src))
	if err != nil {
		return err
	}

	writer := colorable.NewColorableStdout()
	name := color.New(color.Bold, color.FgHiCyan).SprintFunc()
	for _, n := range forest.Names() {
		tree, _ := forest.Tree(n)
		fmt.Fprintf(writer, "%s\n", name(n))
		fmt.Fprintln(writer, tree.Root.Format())
	}
	return nil
}

func checkCmd(args []string) error {
	if len(args) < 1 {
		return errors.New("gotl check: usage: gotl check <dir>")
	}
	_, err := bundle.LoadDir(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, diag.FormatError(err, true))
		os.Exit(1)
	}
	return nil
}

// fromInterface converts a value decoded by encoding/json (nil, bool,
// float64, string, []interface{}, map[string]interface{}) into a
// value.Value, so a JSON context file can drive rendering.
func fromInterface(v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(x)
	case float64:
		return value.Float(x)
	case string:
		return value.String(x)
	case []interface{}:
		vs := make([]value.Value, len(x))
		for i, e := range x {
			vs[i] = fromInterface(e)
		}
		return value.Array(vs...)
	case map[string]interface{}:
		obj := value.NewObject()
		for k, e := range x {
			obj.Set(k, fromInterface(e))
		}
		obj.SortKeys()
		return value.FromObject(obj)
	default:
		return value.Null
	}
}

func main() {
	if err := _main(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, diag.FormatError(err, true))
		os.Exit(1)
	}
}
