package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mjgo/server/internal/ai"
	"github.com/mjgo/server/internal/config"
	"github.com/mjgo/server/internal/data"
	"github.com/mjgo/server/internal/httpapi"
	gonet "github.com/mjgo/server/internal/net"
	"github.com/mjgo/server/internal/persist"
	"github.com/mjgo/server/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             MJGO  v0.1.0                  \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      立直麻雀 · Go 對局伺服器             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	// CJK characters take two columns.
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	displayWidth := 0
	for _, r := range label {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	dotsLen := 42 - displayWidth - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("MJGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Connect to PostgreSQL and run migrations
	printSection("資料庫")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL 連線成功")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("資料庫遷移完成")
	fmt.Println()

	// 4. Create repositories
	historyRepo := persist.NewHistoryRepo(db)
	replayRepo := persist.NewReplayRepo(db)

	// 5. Load game data
	printSection("資料載入")

	presets, err := data.LoadRulePresets(filepath.Join(cfg.Game.DataDir, "yaml", "rule_presets.yaml"))
	if err != nil {
		return fmt.Errorf("load rule presets: %w", err)
	}
	printStat("規則預設", len(presets))
	if _, ok := presets[cfg.Game.Preset]; !ok {
		return fmt.Errorf("default preset %q is not defined", cfg.Game.Preset)
	}

	// Substitute brain: Lua when scripts exist, tsumogiri baseline otherwise.
	scriptsDir := filepath.Join(cfg.Game.ScriptsDir, "ai")
	newStrategy := func() ai.Strategy {
		s, err := ai.NewLuaStrategy(scriptsDir, log)
		if err != nil {
			log.Warn("代打腳本載入失敗，改用摸切", zap.Error(err))
			return ai.Tsumogiri{}
		}
		return s
	}
	if _, err := os.Stat(scriptsDir); err != nil {
		newStrategy = func() ai.Strategy { return ai.Tsumogiri{} }
		log.Warn("找不到代打腳本目錄", zap.String("dir", scriptsDir))
	} else {
		printOK("Lua 代打腳本就緒")
	}
	fmt.Println()

	// 6. Session manager + transport
	mgr := session.NewManager(cfg, presets, historyRepo, replayRepo, newStrategy, log)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go mgr.Run(runCtx)

	wsServer := gonet.NewServer(mgr, cfg.Network.MessagesPerSecond, log)
	api := httpapi.New(mgr, historyRepo, replayRepo, log)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsServer)
	api.Register(mux)

	httpServer := &http.Server{
		Addr:              cfg.Network.BindAddress,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 %s", cfg.Network.BindAddress))
	printReady(fmt.Sprintf("心跳掃描間隔 %s", cfg.Network.HeartbeatInterval))
	fmt.Println()

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-runCtx.Done():
		log.Info("收到關閉信號")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("關閉逾時", zap.Error(err))
	}
	log.Info("伺服器已停止")
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
