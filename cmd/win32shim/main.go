package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/win32shim/internal/config"
	"github.com/tsawler/win32shim/internal/console"
	glog "github.com/tsawler/win32shim/internal/log"
	"github.com/tsawler/win32shim/internal/process"
	"github.com/tsawler/win32shim/internal/trace"
	"github.com/tsawler/win32shim/internal/ui/colorize"
	"github.com/tsawler/win32shim/internal/ui/inspect"
)

var (
	verbose bool
	inspectUI bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "win32shim [scenario.yaml]",
		Short: "Run a Win32 ABI shim scenario against the emulator core",
		Long: `win32shim drives a sequence of kernel32/user32/ddraw DLL calls against
an in-process guest address space, heap, and DirectDraw7 COM emulation —
no real x86 decoding, no real Windows. Scenarios are declared in YAML:
each entry names a "dll!Symbol" export to invoke against a fresh process.

Examples:
  win32shim scenario.yaml              # run a scenario, print a colorized trace
  win32shim scenario.yaml -v           # verbose debug output
  win32shim scenario.yaml -i           # run, then open the trace in the inspect TUI
  win32shim console                    # open an interactive JS console`,
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		RunE:                  runScenario,
	}
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose debug output")
	rootCmd.Flags().BoolVarP(&inspectUI, "inspect", "i", false, "open the trace in the inspect TUI after running")

	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "Open an interactive JavaScript console over a fresh process",
		RunE:  runConsole,
	}
	rootCmd.AddCommand(consoleCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if scenario.Verbose {
		verbose = true
	}

	glog.Init(verbose)
	logger := glog.L
	session := trace.NewSession()
	session.Hook(logger)

	host := newTraceHost()
	p := process.New(scenario.MemSize, host, logger)

	fmt.Println(colorize.Header("▶") + " win32shim — " + scenario.Name)
	fmt.Println()

	count, failed := 0, 0
	for _, call := range scenario.Calls {
		for i := len(call.Args) - 1; i >= 0; i-- {
			p.Push(call.Args[i])
		}
		ok := p.Call(call.DLL, call.Symbol)
		count++
		if !ok {
			failed++
			fmt.Println(colorize.Error(fmt.Sprintf("  unresolved: %s!%s", call.DLL, call.Symbol)))
			continue
		}
		printEvent(session)
	}

	fmt.Println()
	fmt.Print(colorize.Border("───────────────────────────────────────── "))
	fmt.Printf("%s calls  %s unresolved\n",
		colorize.FuncName(fmt.Sprintf("%d", count)),
		colorize.FuncName(fmt.Sprintf("%d", failed)))

	if inspectUI {
		return inspect.Run(session)
	}
	return nil
}

// printEvent prints the most recently recorded trace event, colorized as a
// "tags  name  detail" line.
func printEvent(s *trace.Session) {
	if len(s.Events) == 0 {
		return
	}
	ev := s.Events[len(s.Events)-1]
	tags := strings.Join(ev.Tags.Strings(), " ")
	fmt.Printf("  %s  %s  %s\n",
		colorize.Tag(tags),
		colorize.FuncName(ev.Name),
		colorize.Detail(ev.Detail))
}

func runConsole(cmd *cobra.Command, args []string) error {
	glog.Init(verbose)
	p := process.New(4*1024*1024, newTraceHost(), glog.L)
	c := console.New(p)

	fmt.Println(colorize.Header("▶") + " win32shim console — win32.call(dll, symbol), win32.peek(addr), win32.poke(addr, v)")
	scanner := newLineScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		out, err := c.Run(line)
		if err != nil {
			fmt.Println(colorize.Error(err.Error()))
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
	return nil
}
