package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/memtest/pkg/memtest"
)

// Run is the CLI entry point. It returns the process exit code.
//
// Mirrors spec.md §6's informative front-end: it builds a region of the
// requested size, runs the configured suite, prints the rendered
// report, and exits non-zero iff all_pass() is false or a setup error
// occurred.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string) int {
	flags := flag.NewFlagSet("memtest", flag.ContinueOnError)
	flags.SetOutput(&strings.Builder{}) // discard pflag's own error/usage output

	flagMegabytes := flags.Int("megabytes", 0, "region size in MiB")
	flagTimeoutMS := flags.Int("timeout", 0, "wall-clock deadline in milliseconds")
	flagLockMode := flags.String("lock-mode", "", "resizable|fixedsize|disabled")
	flagWSResize := flags.Bool("allow-ws-resize", false, "widen the process working set before locking")
	flagMultithread := flags.Bool("allow-multithread", false, "partition each test across worker threads")
	flagEarlyTerm := flags.Bool("allow-early-termination", false, "stop at the first hardware failure")
	flagTests := flags.String("tests", "", "comma-separated ordered test list (default: all 13, shuffled)")
	flagConfig := flags.String("config", "memtest.hujson", "path to an optional JSONC config file")
	flagReportFile := flags.String("report-file", "", "write the rendered report to this path")

	if err := flags.Parse(args[1:]); err != nil {
		fmt.Fprintln(errOut, "error:", err)

		return 1
	}

	fileCfg, err := loadConfigFile(*flagConfig)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)

		return 1
	}

	cliCfg := Config{}
	if flags.Changed("megabytes") {
		cliCfg.Megabytes = *flagMegabytes
	}

	if flags.Changed("timeout") {
		cliCfg.TimeoutMS = *flagTimeoutMS
	}

	if flags.Changed("lock-mode") {
		cliCfg.LockMode = *flagLockMode
	}

	if flags.Changed("allow-ws-resize") {
		cliCfg.AllowWorkingSetResize = flagWSResize
	}

	if flags.Changed("allow-multithread") {
		cliCfg.AllowMultithread = flagMultithread
	}

	if flags.Changed("allow-early-termination") {
		cliCfg.AllowEarlyTermination = flagEarlyTerm
	}

	cfg := merge(merge(DefaultConfig(), fileCfg), cliCfg)

	lockMode, err := parseLockMode(cfg.LockMode)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)

		return 1
	}

	kinds, err := parseTestKinds(*flagTests)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)

		return 1
	}

	words := cfg.Megabytes * 1024 * 1024 / memtest.WordSize
	region := memtest.NewRegion(make([]uint64, words))

	suiteCfg := memtest.SuiteConfig{
		Timeout:               cfg.timeout(),
		LockMode:              lockMode,
		AllowWorkingSetResize: boolOr(cfg.AllowWorkingSetResize, false),
		AllowMultithread:      boolOr(cfg.AllowMultithread, false),
		AllowEarlyTermination: boolOr(cfg.AllowEarlyTermination, false),
		Logger:                stderrLogger{w: errOut},
	}

	var suite *memtest.Suite
	if len(kinds) == 0 {
		suite = memtest.BuildSuiteRandom(suiteCfg)
	} else {
		suite = memtest.BuildSuite(suiteCfg, kinds)
	}

	reports, runErr := suite.Run(region)
	if runErr != nil {
		fmt.Fprintln(errOut, "error:", runErr)

		return 1
	}

	rendered := reports.String()
	fmt.Fprint(out, rendered)

	if *flagReportFile != "" {
		if err := atomic.WriteFile(*flagReportFile, strings.NewReader(rendered)); err != nil {
			fmt.Fprintln(errOut, "error: writing report file:", err)

			return 1
		}
	}

	if !reports.AllPass() {
		return 1
	}

	return 0
}

// stderrLogger adapts an io.Writer to memtest.Logger, timestamping each
// line the way the teacher's CLI timestamps its own diagnostics.
type stderrLogger struct {
	w io.Writer
}

func (l stderrLogger) Printf(format string, args ...any) {
	fmt.Fprintf(l.w, "%s "+format+"\n", append([]any{time.Now().Format(time.RFC3339)}, args...)...)
}

func parseTestKinds(csv string) ([]memtest.TestKind, error) {
	if csv == "" {
		return nil, nil
	}

	names := strings.Split(csv, ",")
	kinds := make([]memtest.TestKind, 0, len(names))

	byName := make(map[string]memtest.TestKind, len(memtest.AllTestKinds()))
	for _, k := range memtest.AllTestKinds() {
		byName[k.String()] = k
	}

	for _, name := range names {
		name = strings.TrimSpace(name)

		k, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errUnknownTestKind, name)
		}

		kinds = append(kinds, k)
	}

	return kinds, nil
}
