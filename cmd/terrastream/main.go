package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/terrastream/server/internal/config"
	"github.com/terrastream/server/internal/core/event"
	coresys "github.com/terrastream/server/internal/core/system"
	"github.com/terrastream/server/internal/data"
	"github.com/terrastream/server/internal/gen"
	"github.com/terrastream/server/internal/handler"
	gonet "github.com/terrastream/server/internal/net"
	"github.com/terrastream/server/internal/net/packet"
	"github.com/terrastream/server/internal/persist"
	"github.com/terrastream/server/internal/system"
	"github.com/terrastream/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m          TerraStream  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      體素地形串流 · Go 遊戲伺服器         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	// Use rune count for CJK width calculation (each CJK char = 2 columns)
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
	if p := os.Getenv("TERRASTREAM_CONFIG"); p != "" {
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

	printBanner(cfg.Server.Name, cfg.Server.ID)

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

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("資料庫遷移完成")

	// 4. Create repositories and resolve the world instance
	blockRepo := persist.NewBlockRepo(db)
	metaRepo := persist.NewMetaRepo(db)

	meta, err := metaRepo.EnsureInstance(ctx, cfg.Generator.Seed)
	if err != nil {
		return fmt.Errorf("world instance: %w", err)
	}
	if meta.Seed != cfg.Generator.Seed {
		log.Warn("設定檔種子與世界實例不符，沿用實例種子",
			zap.Int64("config_seed", cfg.Generator.Seed),
			zap.Int64("instance_seed", meta.Seed),
		)
		cfg.Generator.Seed = meta.Seed
	}
	printOK(fmt.Sprintf("世界實例 %s (種子: %d)", meta.InstanceID, meta.Seed))

	cachedBlocks, err := blockRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count cached blocks: %w", err)
	}
	fmt.Println()

	// 5. Load data tables
	printSection("資料載入")

	materials, err := data.LoadMaterials("data/yaml/materials.yaml")
	if err != nil {
		log.Warn("材質表載入失敗，使用內建定義", zap.Error(err))
		materials = data.DefaultMaterials()
	}
	printStat("材質定義", materials.Count())

	lodBands, err := data.LoadLODBands("data/yaml/lod_bands.yaml")
	if err != nil {
		log.Warn("細節層級表載入失敗，使用內建定義", zap.Error(err))
		lodBands = data.DefaultLODBands()
	}
	printStat("快取方塊", int(cachedBlocks))

	// 6. Build the world: state, sun, generation pool, loader, streamer
	worldState := world.NewState(cfg.World.BlockEdge)
	sun := world.NewSun(cfg.World.SunDayLength)
	sun.SetPhase(meta.SunPhase)

	genSvc, err := gen.New(cfg.Generator, cfg.World.BlockEdge, blockRepo, log)
	if err != nil {
		return fmt.Errorf("generation service: %w", err)
	}
	genSvc.Start(context.Background())
	defer genSvc.Stop()
	printOK("Lua 地形腳本載入完成")
	fmt.Println()

	bus := event.NewBus()
	sessions := gonet.NewSessionStore()
	router := &handler.Router{Sessions: sessions, World: worldState, Bus: bus, Log: log}
	loader := world.NewLoader(genSvc, router, log)
	streamer := world.NewStreamer(loader, int32(cfg.World.LoadRadius),
		lodBands.ForDistance, log)

	// 7. Create packet handler registry and register handlers
	pktReg := packet.NewRegistry(log)
	deps := &handler.Deps{
		Config:   cfg,
		Log:      log,
		World:    worldState,
		Sessions: sessions,
		Loader:   loader,
		Streamer: streamer,
		Sun:      sun,
		Bus:      bus,
	}
	handler.RegisterAll(pktReg, deps)

	// 8. Create network server
	pktPerSec := 0
	if cfg.RateLimit.Enabled {
		pktPerSec = cfg.RateLimit.PacketsPerSecond
	}
	netServer, err := gonet.NewServer(
		cfg.Network.BindAddress,
		cfg.Network.InQueueSize,
		cfg.Network.OutQueueSize,
		pktPerSec,
		log,
	)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()

	// 9. Create systems and register with runner
	const saveIntervalTicks = 1200 // 1200 ticks × 50ms = 1 minute

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer, pktReg, sessions,
		cfg.Network.MaxPacketsPerTick, worldState, streamer, bus, log))
	runner.Register(system.NewCompletionSystem(genSvc, loader, cfg.Generator.QueueSize, log))
	runner.Register(system.NewPhysicsSystem(worldState, streamer, materials, cfg.World.Gravity))
	runner.Register(system.NewSunSystem(sun, sessions))
	runner.Register(system.NewOutputSystem(sessions))
	persistSys := system.NewPersistenceSystem(metaRepo, sun, meta.InstanceID, saveIntervalTicks, log)
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(bus, loader, worldState, log))

	// 10. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s, 載入半徑: %d)", cfg.Network.TickRate, cfg.World.LoadRadius))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			netServer.Shutdown()
			saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := persistSys.SaveNow(saveCtx); err != nil {
				log.Error("關閉時世界時鐘存檔失敗", zap.Error(err))
			}
			saveCancel()
			log.Info("伺服器已停止")
			return nil
		}
	}
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
