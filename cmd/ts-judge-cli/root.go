package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/criyle/ts-judge/cmd/ts-judge/version"
	"github.com/criyle/ts-judge/judger"
	"github.com/criyle/ts-judge/language"
	"github.com/criyle/ts-judge/problem"
	"github.com/criyle/ts-judge/progress"
	"github.com/criyle/ts-judge/runner"
	"github.com/criyle/ts-judge/worker"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// errFailed is returned when a judged snippet does not pass all test cases
var errFailed = errors.New("not all test cases passed")

type options struct {
	problemDir string
	redisAddr  string
	timeLimit  time.Duration
	verbose    bool
	color      string
}

func newRootCmd() *cobra.Command {
	opt := &options{}
	cmd := &cobra.Command{
		Use:           "ts-judge-cli",
		Short:         "Judge TypeScript solutions of practice problems",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opt.problemDir, "problem-dir", os.Getenv("TJ_PROBLEM_DIR"), "directory of problem yaml files (builtin problems if empty)")
	cmd.PersistentFlags().StringVar(&opt.redisAddr, "redis-addr", os.Getenv("TJ_REDIS_ADDR"), "redis address to record solved problems")
	cmd.PersistentFlags().DurationVar(&opt.timeLimit, "time-limit", language.DefaultTimeLimit, "time limit for each test case invocation")
	cmd.PersistentFlags().BoolVarP(&opt.verbose, "verbose", "v", false, "print debug logs")
	cmd.PersistentFlags().StringVar(&opt.color, "color", "auto", "colorize output (auto / always / never)")

	cmd.AddCommand(newListCmd(opt))
	cmd.AddCommand(newShowCmd(opt))
	cmd.AddCommand(newRunCmd(opt))
	cmd.AddCommand(newVerifyCmd(opt))
	return cmd
}

func newListCmd(opt *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opt.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()
			return env.printer(cmd.OutOrStdout()).list(cmd.Context(), env.judger)
		},
	}
}

func newShowCmd(opt *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <problem>",
		Short: "Show the description and starter code of a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opt.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()
			p, ok := env.judger.Catalog.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", judger.ErrProblemNotFound, args[0])
			}
			env.printer(cmd.OutOrStdout()).problem(p)
			return nil
		},
	}
}

func newRunCmd(opt *options) *cobra.Command {
	var useSolution bool
	cmd := &cobra.Command{
		Use:   "run <problem> [file]",
		Short: "Judge a solution file, reads stdin when file is - or omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var code []byte
			if !useSolution {
				var err error
				if code, err = readSource(cmd.InOrStdin(), args[1:]); err != nil {
					return err
				}
			}
			env, err := opt.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()

			pr := env.printer(cmd.OutOrStdout())
			rt, err := env.judger.Judge(cmd.Context(), judger.Task{
				ProblemID:   args[0],
				Code:        string(code),
				UseSolution: useSolution,
				Reporter:    judger.ReporterFunc(pr.progress),
			})
			if err != nil {
				return err
			}
			if !rt.AllPassed {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&useSolution, "solution", false, "run the canonical solution instead")
	return cmd
}

func newVerifyCmd(opt *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Run the canonical solution of every problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opt.setup(cmd.Context())
			if err != nil {
				return err
			}
			defer env.close()
			results, err := env.judger.Verify(cmd.Context())
			if err != nil {
				return err
			}
			if !env.printer(cmd.OutOrStdout()).verify(results) {
				return errFailed
			}
			return nil
		},
	}
}

func readSource(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

type environment struct {
	judger *judger.Judger
	logger *zap.Logger
	color  bool
	close  func()
}

func (e *environment) printer(w io.Writer) *printer {
	return &printer{w: w, color: e.color}
}

func (o *options) setup(ctx context.Context) (*environment, error) {
	logger, err := o.newLogger()
	if err != nil {
		return nil, err
	}
	var c *problem.StaticCatalog
	if o.problemDir == "" {
		c, err = problem.Builtin()
	} else {
		c, err = problem.LoadDir(o.problemDir)
	}
	if err != nil {
		return nil, err
	}

	var (
		store   progress.Store = progress.NewMemoryStore()
		closers []func() error
	)
	if o.redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: o.redisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", o.redisAddr, err)
		}
		store = progress.NewRedisStore(client, "")
		closers = append(closers, client.Close)
	}

	r := runner.New(logger)
	r.Language = &language.Static{TimeLimit: o.timeLimit}
	w := worker.New(worker.Config{Runner: r, Parallelism: 1})
	w.Start()

	return &environment{
		judger: &judger.Judger{Catalog: c, Worker: w, Progress: store, Logger: logger},
		logger: logger,
		color:  o.useColor(),
		close: func() {
			w.Shutdown()
			for _, f := range closers {
				f()
			}
			logger.Sync()
		},
	}, nil
}

func (o *options) newLogger() (*zap.Logger, error) {
	if !o.verbose {
		return zap.NewNop(), nil
	}
	config := zap.NewDevelopmentConfig()
	if o.useColor() {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return config.Build()
}

func (o *options) useColor() bool {
	switch o.color {
	case "always":
		return true
	case "never":
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
