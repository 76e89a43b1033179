package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gomc/pkg/compiler"
	"gomc/pkg/config"
	"gomc/pkg/source"
	"gomc/pkg/vm"
)

func main() {
	inPath := flag.String("in", "", "input source file path")
	outPath := flag.String("out", "", "output object file path (default: input with .mco extension)")
	runProgram := flag.Bool("run", false, "run the compiled program")
	runObjPath := flag.String("run-obj", "", "run an existing object file")
	entryFlag := flag.String("entry", "", "load address (default 0xf000, or the project manifest's)")
	trace := flag.Bool("trace", false, "print every command as it executes")
	projectDir := flag.String("project", "", "build the project whose mc.toml is in this directory")
	flag.Parse()

	if *runObjPath != "" && (*inPath != "" || *projectDir != "") {
		fmt.Fprintln(os.Stderr, "use either -run-obj or -in/-project, not both")
		os.Exit(2)
	}
	if *inPath != "" && *projectDir != "" {
		fmt.Fprintln(os.Stderr, "use either -in or -project, not both")
		os.Exit(2)
	}

	var (
		prog    compiler.Program
		entry   = vm.DefaultEntry
		output  = *outPath
		memSize = vm.MemorySize
	)

	switch {
	case *projectDir != "":
		cfg, err := config.Load(*projectDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		prog, entry, memSize = buildProject(cfg)
		if output == "" {
			output = cfg.OutputPath()
		}

	case *inPath != "":
		prog = compileFile(*inPath)
		if output == "" {
			output = defaultOutputPath(*inPath)
		}

	case *runObjPath != "":
		data, err := os.ReadFile(*runObjPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read object file %q: %v\n", *runObjPath, err)
			os.Exit(1)
		}
		prog, err = compiler.DecodeObject(data)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

	default:
		// No inputs named: look for a project manifest in the current
		// directory or any parent.
		cfg, err := config.FindAndLoad(".")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if cfg == nil {
			fmt.Fprintln(os.Stderr, "nothing to do: provide -in to compile, -project to build a project, or -run-obj <file> to run an existing object")
			flag.Usage()
			os.Exit(2)
		}
		prog, entry, memSize = buildProject(cfg)
		if output == "" {
			output = cfg.OutputPath()
		}
	}

	if output != "" {
		data, err := compiler.EncodeObject(prog)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write object file %q: %v\n", output, err)
			os.Exit(1)
		}
		fmt.Printf("compiled %d commands -> %s\n", len(prog.Commands()), output)
	}

	if *entryFlag != "" {
		addr, err := vm.ParseValue(*entryFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad -entry: %v\n", err)
			os.Exit(2)
		}
		entry = addr
	}

	if *runProgram || *runObjPath != "" {
		if err := run(prog, entry, memSize, *trace); err != nil {
			fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
			os.Exit(1)
		}
	}
}

// buildProject compiles the project's entry source and reports the machine
// parameters its manifest asks for.
func buildProject(cfg *config.Config) (compiler.Program, vm.Value, int) {
	addr, err := cfg.EntryAddress()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return compileFile(cfg.EntryPath()), addr, cfg.Machine.Memory
}

// compileFile compiles one source file, rendering any diagnostics against
// the sources that produced them.
func compileFile(path string) compiler.Program {
	c := compiler.New()
	if err := c.CompileFile(path); err != nil {
		var se *source.Error
		if errors.As(err, &se) {
			fmt.Fprint(os.Stderr, se.Render(c.Units()))
		} else {
			fmt.Fprintf(os.Stderr, "compilation failed: %v\n", err)
		}
		os.Exit(1)
	}
	return c.Program()
}

func defaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	if ext == "" {
		return inPath + ".mco"
	}
	return strings.TrimSuffix(inPath, ext) + ".mco"
}

// run executes prog until the machine halts on its own. A halt is the
// normal way out and reports its cause; only hook and execution faults
// come back as errors.
func run(p compiler.Program, entry vm.Value, memSize int, trace bool) error {
	r := vm.NewRunner(vm.WrapMemory(make([]byte, memSize)))
	if trace {
		r.Trace = os.Stderr
	}
	if err := p.Load(r, entry); err != nil {
		return err
	}
	if err := r.Run(entry); err != nil {
		return err
	}
	fmt.Printf("aborted: %v\n", r.Cause)
	return nil
}
