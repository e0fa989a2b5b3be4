package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/ifdb/internal/app"
	"github.com/John-Robertt/ifdb/internal/config"
	"github.com/John-Robertt/ifdb/internal/domain"
	"github.com/John-Robertt/ifdb/internal/infra/fsx"
	"github.com/John-Robertt/ifdb/internal/nfo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitError 携带退出码：0 = ok/not_found，1 = failed，2 = 用法错误。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
	fmt.Fprintf(stderr, "使用 \"ifdb --help\" 查看详细说明。\n")
	return 2
}

type globalOpts struct {
	configPath     string
	apiKey         string
	searchEngineID string
	domain         string
	logLevel       string
	format         string
}

func (g *globalOpts) cliArgs(cmd *cobra.Command) config.CLIArgs {
	changed := func(name string) bool {
		f := cmd.Flag(name)
		return f != nil && f.Changed
	}
	return config.CLIArgs{
		ConfigPath:        g.configPath,
		APIKey:            g.apiKey,
		APIKeySet:         changed("api-key"),
		SearchEngineID:    g.searchEngineID,
		SearchEngineIDSet: changed("search-engine-id"),
		Domain:            g.domain,
		DomainSet:         changed("domain"),
		LogLevel:          g.logLevel,
		LogLevelSet:       changed("log-level"),
	}
}

type nfoOpts struct {
	path  string
	force bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalOpts{}
	root := &cobra.Command{
		Use:   "ifdb [handle \"?action=...\" [resume:false]]",
		Short: "fanedit.org 元数据刮削器",
		Long: `ifdb 通过 Programmable Search 在 fanedit.org 内搜索候选条目，并从详情页提取电影元数据。

两种调用方式：
  ifdb find --title <片名> [--year <年份>]
  ifdb getdetails --url <详情页> [--nfo movie.nfo [--force]] [--format nfo]
  ifdb <handle> "?action=find&title=...&year=..."     （宿主插件协议）

stdout 只输出结果行（JSON 或 NFO）；日志与提示走 stderr。`,
		Args:          cobra.MaximumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if len(args) < 2 {
				return fmt.Errorf("宿主调用需要 <handle> 与 \"?action=...\" 两个参数")
			}
			if _, err := strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("handle 必须是整数，实际是 %q", args[0])
			}
			if g.format != formatJSON {
				return fmt.Errorf("宿主调用只支持 --format json")
			}
			return runAction(cmd, g, app.ParseParams(args[1]), stdout, stderr, nfoOpts{})
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "配置文件路径（默认读取 ./"+config.DefaultFileName+"，若存在）")
	pf.StringVar(&g.apiKey, "api-key", "", "搜索 API key（覆盖环境变量与配置文件）")
	pf.StringVar(&g.searchEngineID, "search-engine-id", "", "Programmable Search 引擎 ID（cx）")
	pf.StringVar(&g.domain, "domain", "", "限定的站点域名（默认 "+config.DefaultDomain+"）")
	pf.StringVar(&g.logLevel, "log-level", "", "日志级别：debug|info|warn|error")
	pf.StringVar(&g.format, "format", formatJSON, "输出格式：json|nfo（nfo 仅用于 getdetails）")

	root.AddCommand(newFindCmd(g, stdout, stderr), newGetDetailsCmd(g, stdout, stderr))
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root
}

func newFindCmd(g *globalOpts, stdout, stderr io.Writer) *cobra.Command {
	var title, year string
	c := &cobra.Command{
		Use:   "find",
		Short: "按片名（可选年份）搜索候选详情页",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := app.Params{Action: domain.ActionFind, Title: title, Year: year}
			return runAction(cmd, g, p, stdout, stderr, nfoOpts{})
		},
	}
	c.Flags().StringVar(&title, "title", "", "片名（必填）")
	c.Flags().StringVar(&year, "year", "", "年份（可选）")
	_ = c.MarkFlagRequired("title")
	return c
}

func newGetDetailsCmd(g *globalOpts, stdout, stderr io.Writer) *cobra.Command {
	var (
		pageURL string
		no      nfoOpts
	)
	c := &cobra.Command{
		Use:   "getdetails",
		Short: "抓取一个详情页并输出元数据记录",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := app.Params{Action: domain.ActionGetDetails, URL: pageURL}
			return runAction(cmd, g, p, stdout, stderr, no)
		},
	}
	c.Flags().StringVar(&pageURL, "url", "", "详情页 URL（必填）")
	c.Flags().StringVar(&no.path, "nfo", "", "同时把记录写成 Kodi NFO 文件")
	c.Flags().BoolVar(&no.force, "force", false, "允许覆盖已存在的 NFO 文件")
	_ = c.MarkFlagRequired("url")
	return c
}

// runAction 加载配置、执行一次调用并把 Outcome 映射为退出码。
func runAction(cmd *cobra.Command, g *globalOpts, p app.Params, stdout, stderr io.Writer, no nfoOpts) error {
	switch g.format {
	case formatJSON:
	case formatNFO:
		if p.Action != domain.ActionGetDetails {
			return fmt.Errorf("--format nfo 只能用于 getdetails")
		}
	default:
		return fmt.Errorf("--format 只能是 json 或 nfo，实际是 %q", g.format)
	}

	host := newLineHost(stdout, stderr, g.format)

	cwd, err := os.Getwd()
	if err != nil {
		return setupFailed(host, stderr, p.Action, fmt.Errorf("读取当前目录失败：%w", err))
	}
	eff, err := config.LoadEffective(cwd, g.cliArgs(cmd))
	if err != nil {
		return setupFailed(host, stderr, p.Action, err)
	}

	logger := newLogger(stderr, eff.SlogLevel())
	if eff.ConfigPath != "" {
		logger.Debug("已读取配置文件", "path", eff.ConfigPath)
	}
	r, err := app.New(eff, host, logger)
	if err != nil {
		return setupFailed(host, stderr, p.Action, err)
	}

	out := r.Dispatch(cmd.Context(), p)
	if host.err != nil {
		logger.Error("写出结果失败", "invocation", out.InvocationID, "err", host.err)
		return &exitError{code: 1}
	}

	if no.path != "" && out.Meta != nil {
		if err := writeNFO(no.path, *out.Meta, no.force); err != nil {
			logger.Error("写入 NFO 失败", "invocation", out.InvocationID, "path", no.path, "err", err)
			return &exitError{code: 1}
		}
		logger.Info("NFO 已写入", "invocation", out.InvocationID, "path", no.path)
	}

	if !out.Succeeded() {
		return &exitError{code: 1}
	}
	return nil
}

// setupFailed 处理 Runner 构造之前的失败：仍然按宿主协议提示并结束。
func setupFailed(host *lineHost, stderr io.Writer, action string, err error) error {
	newLogger(stderr, slog.LevelInfo).Error("初始化失败", "action", action, "error_code", config.Code(err), "err", err)
	host.Notify(app.NotifyTitle, err.Error())
	host.EndOfDirectory(false)
	return &exitError{code: 1}
}

func writeNFO(path string, meta domain.MovieMeta, force bool) error {
	b, err := nfo.Encode(meta)
	if err != nil {
		return err
	}
	if err := fsx.WriteFile(path, b, force); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%q 已存在（使用 --force 覆盖）", path)
		}
		return err
	}
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
