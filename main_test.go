package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/schedule"
)

func estimatePipeline(t *testing.T) *pipeline {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}
	cfg.Measure.Backend = "estimate"
	cfg.Measure.Cache = "memory"
	p, err := newPipeline(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newPipeline 失败: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPipelinePaginateUsesCache(t *testing.T) {
	p := estimatePipeline(t)
	if p.cache == nil {
		t.Fatalf("memory 缓存未启用")
	}
	doc := document.FromBlocks(
		document.NewParagraph("same"),
		document.NewParagraph("same"),
		document.NewParagraph("other"),
	)
	res, err := p.paginate(context.Background(), doc)
	if err != nil {
		t.Fatalf("分页失败: %v", err)
	}
	if len(res.Pages) != 1 || len(res.Pages[0].Blocks) != 3 {
		t.Fatalf("分页结果异常: %+v", res.Pages)
	}
	hits, misses := p.cache.Stats()
	if hits != 1 || misses != 2 {
		t.Fatalf("hits=%d misses=%d, want 1/2", hits, misses)
	}
}

func TestPipelineScheduleOptions(t *testing.T) {
	p := estimatePipeline(t)
	opts, err := p.scheduleOptions(config.ScheduleConfig{Ticker: "immediate", Policy: "single"})
	if err != nil {
		t.Fatalf("scheduleOptions 失败: %v", err)
	}
	if opts.Policy != schedule.SingleOutstanding {
		t.Fatalf("policy = %s", opts.Policy)
	}
	if _, err := p.scheduleOptions(config.ScheduleConfig{Ticker: "hourly"}); err == nil {
		t.Fatalf("未知 ticker 应报错")
	}
	if _, err := p.scheduleOptions(config.ScheduleConfig{Ticker: "immediate", Policy: "never"}); err == nil {
		t.Fatalf("未知 policy 应报错")
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.quire")

	if got, want := outputPath(src, "Hello, World!", ""), filepath.Join(dir, "hello-world.pdf"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	if got, want := outputPath(src, "", ""), filepath.Join(dir, "notes.pdf"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	out := filepath.Join(dir, "out")
	if err := os.Mkdir(out, 0o755); err != nil {
		t.Fatal(err)
	}
	if got, want := outputPath(src, "Report", out), filepath.Join(out, "report.pdf"); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	explicit := filepath.Join(dir, "x.pdf")
	if got := outputPath(src, "Report", explicit); got != explicit {
		t.Fatalf("got %s, want %s", got, explicit)
	}
}

func TestWriteDebug(t *testing.T) {
	p := estimatePipeline(t)
	res, err := p.paginate(context.Background(), document.New())
	if err != nil {
		t.Fatal(err)
	}
	name := filepath.Join(t.TempDir(), "debug", "result.json")
	if err := writeDebug(res, name); err != nil {
		t.Fatalf("writeDebug 失败: %v", err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"pages"`) {
		t.Fatalf("调试 JSON 缺少 pages: %s", data)
	}
}

func TestRestoreStdClosesLogFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "quire.log")
	conf := config.LoggingConfig{
		ConsoleLogger: config.LoggerConfig{Level: "none"},
		FileLogger:    config.LoggerConfig{Level: "normal", Destination: dest, Mode: "overwrite"},
	}
	env := envFromContext(contextWithEnv(context.Background()))
	log, closeLog, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare 失败: %v", err)
	}
	env.Log, env.closeLog = log, closeLog
	env.redirectStdLog()

	env.Log.Info("before teardown")
	if err := env.restoreStd(); err != nil {
		t.Fatalf("restoreStd 失败: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "before teardown") {
		t.Fatalf("日志未写入文件: %q", data)
	}
	if err := env.restoreStd(); err != nil {
		t.Fatalf("重复关闭应无效果: %v", err)
	}
}
