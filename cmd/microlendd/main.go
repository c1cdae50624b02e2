package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"microlend/config"
	"microlend/core"
	"microlend/core/events"
	"microlend/core/types"
	"microlend/crypto"
	"microlend/observability/logging"
	"microlend/rpc"
	"microlend/storage"
)

// adminSet grants the default-marking capability to a fixed address list.
type adminSet map[[20]byte]struct{}

func (s adminSet) IsAdmin(addr [20]byte) bool {
	_, ok := s[addr]
	return ok
}

// pauseSet halts the listed modules.
type pauseSet map[string]struct{}

func (s pauseSet) IsPaused(module string) bool {
	_, ok := s[module]
	return ok
}

// logEmitter writes lifecycle events to the structured log.
type logEmitter struct {
	log *slog.Logger
}

func (e logEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	args := []any{"type", evt.EventType()}
	if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
		if payload := carrier.Event(); payload != nil {
			for key, value := range payload.Attributes {
				args = append(args, key, value)
			}
		}
	}
	e.log.Info("ledger event", args...)
}

func main() {
	configPath := flag.String("config", "./config.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("microlendd", cfg.Environment)
	logger.Info("loaded configuration", "path", *configPath, "network", cfg.NetworkName)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("create data directory", "error", err)
		os.Exit(1)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	heights := core.NewIntervalHeightSource(time.Now(), time.Duration(cfg.BlockIntervalSeconds)*time.Second)
	node := core.NewNode(db, heights)

	admins := adminSet{}
	for _, raw := range cfg.AdminAddresses {
		addr, err := crypto.DecodeAddress(raw)
		if err != nil {
			logger.Error("invalid admin address", "address", raw, "error", err)
			os.Exit(1)
		}
		admins[addr.Bytes()] = struct{}{}
	}
	node.SetAdmins(admins)

	pauses := pauseSet{}
	for _, module := range cfg.PausedModules {
		pauses[module] = struct{}{}
	}
	node.SetPauses(pauses)
	node.SetEmitter(logEmitter{log: logger})

	if err := applyGenesis(cfg, node, logger); err != nil {
		logger.Error("apply genesis", "error", err)
		os.Exit(1)
	}

	if cfg.MetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("starting metrics server", "addr", cfg.MetricsAddress)
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	server := rpc.NewServer(node)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", "error", err)
		os.Exit(1)
	}
}

// applyGenesis seeds the treasury and participant balances the first time the
// data directory is used. A marker file keeps restarts from re-crediting.
func applyGenesis(cfg *config.Config, node *core.Node, logger *slog.Logger) error {
	marker := filepath.Join(cfg.DataDir, "genesis-applied")
	if _, err := os.Stat(marker); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	if balance := cfg.TreasuryBalance; balance != "" {
		amount, ok := new(big.Int).SetString(balance, 10)
		if !ok || amount.Sign() <= 0 {
			return fmt.Errorf("invalid treasury balance %q", balance)
		}
		if err := node.FundAccount(node.ModuleAddress(), amount); err != nil {
			return fmt.Errorf("fund treasury: %w", err)
		}
		logger.Info("funded protocol treasury", "balance", amount.String())
	}
	for _, account := range cfg.GenesisAccounts {
		addr, err := crypto.DecodeAddress(account.Address)
		if err != nil {
			return fmt.Errorf("genesis account %s: %w", account.Address, err)
		}
		amount, ok := new(big.Int).SetString(account.Balance, 10)
		if !ok || amount.Sign() <= 0 {
			return fmt.Errorf("genesis account %s: invalid balance %q", account.Address, account.Balance)
		}
		if err := node.FundAccount(addr.Bytes(), amount); err != nil {
			return fmt.Errorf("fund genesis account %s: %w", account.Address, err)
		}
	}
	if len(cfg.GenesisAccounts) > 0 {
		logger.Info("funded genesis accounts", "count", len(cfg.GenesisAccounts))
	}
	return os.WriteFile(marker, []byte(time.Now().UTC().Format(time.RFC3339)+"\n"), 0o644)
}
